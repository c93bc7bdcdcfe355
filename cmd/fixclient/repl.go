package main

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/chzyer/readline"

	"github.com/jcass77/WTFIX-sub000/builder"
	"github.com/jcass77/WTFIX-sub000/config"
	"github.com/jcass77/WTFIX-sub000/message"
	"github.com/jcass77/WTFIX-sub000/pipeline"
)

// runRepl drives an interactive command loop for manual order entry,
// blocking until the user exits or the underlying readline prompt errors
// out (e.g. the terminal was closed).
func runRepl(pl *pipeline.Pipeline, cfg *config.Config, logger *log.Logger) {
	completer := readline.NewPrefixCompleter(
		readline.PcItem("order"),
		readline.PcItem("cancel"),
		readline.PcItem("replace"),
		readline.PcItem("status"),
		readline.PcItem("help"),
		readline.PcItem("exit"),
	)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "fixclient> ",
		HistoryFile:     "/tmp/fixclient_history",
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		logger.Printf("repl: %v", err)
		return
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			return
		}

		parts := strings.Fields(strings.TrimSpace(line))
		if len(parts) == 0 {
			continue
		}

		switch strings.ToLower(parts[0]) {
		case "order":
			handleOrder(pl, cfg, parts)
		case "cancel":
			handleCancel(pl, cfg, parts)
		case "replace":
			handleReplace(pl, cfg, parts)
		case "status":
			handleStatus(pl, cfg, parts)
		case "help":
			printHelp()
		case "exit":
			return
		default:
			fmt.Println("unknown command, type 'help' for usage")
		}
	}
}

func printHelp() {
	fmt.Print(`Commands:
  order   <clordid> <symbol> <side:1|2> <ordtype:1|2> <tif> <qty> [price]
  cancel  <clordid> <origclordid> <orderid> <symbol> <side>
  replace <clordid> <origclordid> <orderid> <symbol> <side> <ordtype> <qty> <price>
  status  <orderid> [clordid] [symbol] [side]
  help
  exit
`)
}

func handleOrder(pl *pipeline.Pipeline, cfg *config.Config, parts []string) {
	msg, err := parseOrderArgs(cfg, parts)
	if err != nil {
		fmt.Println(err)
		return
	}
	send(pl, msg)
}

func handleCancel(pl *pipeline.Pipeline, cfg *config.Config, parts []string) {
	msg, err := parseCancelArgs(cfg, parts)
	if err != nil {
		fmt.Println(err)
		return
	}
	send(pl, msg)
}

func handleReplace(pl *pipeline.Pipeline, cfg *config.Config, parts []string) {
	msg, err := parseReplaceArgs(cfg, parts)
	if err != nil {
		fmt.Println(err)
		return
	}
	send(pl, msg)
}

func handleStatus(pl *pipeline.Pipeline, cfg *config.Config, parts []string) {
	msg, err := parseStatusArgs(cfg, parts)
	if err != nil {
		fmt.Println(err)
		return
	}
	send(pl, msg)
}

func parseOrderArgs(cfg *config.Config, parts []string) (*message.Message, error) {
	if len(parts) < 7 {
		return nil, fmt.Errorf("usage: order <clordid> <symbol> <side> <ordtype> <tif> <qty> [price]")
	}
	p := builder.NewOrderParams{
		Account:     cfg.SenderCompID,
		ClOrdID:     parts[1],
		Symbol:      parts[2],
		Side:        parts[3],
		OrdType:     parts[4],
		TimeInForce: parts[5],
		OrderQty:    parts[6],
	}
	if len(parts) > 7 {
		p.Price = parts[7]
	}
	return builder.BuildNewOrderSingle(p, cfg.SenderCompID, cfg.TargetCompID), nil
}

func parseCancelArgs(cfg *config.Config, parts []string) (*message.Message, error) {
	if len(parts) < 6 {
		return nil, fmt.Errorf("usage: cancel <clordid> <origclordid> <orderid> <symbol> <side>")
	}
	p := builder.CancelOrderParams{
		Account:     cfg.SenderCompID,
		ClOrdID:     parts[1],
		OrigClOrdID: parts[2],
		OrderID:     parts[3],
		Symbol:      parts[4],
		Side:        parts[5],
	}
	return builder.BuildOrderCancelRequest(p, cfg.SenderCompID, cfg.TargetCompID), nil
}

func parseReplaceArgs(cfg *config.Config, parts []string) (*message.Message, error) {
	if len(parts) < 9 {
		return nil, fmt.Errorf("usage: replace <clordid> <origclordid> <orderid> <symbol> <side> <ordtype> <qty> <price>")
	}
	p := builder.ReplaceOrderParams{
		Account:     cfg.SenderCompID,
		ClOrdID:     parts[1],
		OrigClOrdID: parts[2],
		OrderID:     parts[3],
		Symbol:      parts[4],
		Side:        parts[5],
		OrdType:     parts[6],
		OrderQty:    parts[7],
		Price:       parts[8],
	}
	return builder.BuildOrderCancelReplaceRequest(p, cfg.SenderCompID, cfg.TargetCompID), nil
}

func parseStatusArgs(cfg *config.Config, parts []string) (*message.Message, error) {
	if len(parts) < 2 {
		return nil, fmt.Errorf("usage: status <orderid> [clordid] [symbol] [side]")
	}
	var clOrdID, symbol, side string
	if len(parts) > 2 {
		clOrdID = parts[2]
	}
	if len(parts) > 3 {
		symbol = parts[3]
	}
	if len(parts) > 4 {
		side = parts[4]
	}
	return builder.BuildOrderStatusRequest(parts[1], clOrdID, symbol, side, cfg.SenderCompID, cfg.TargetCompID), nil
}

func send(pl *pipeline.Pipeline, msg *message.Message) {
	if err := pl.Send(context.Background(), msg); err != nil {
		fmt.Printf("send failed: %v\n", err)
	}
}
