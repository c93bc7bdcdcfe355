// Package transport establishes the TCP connection to a FIX server and
// extracts complete, SOH-delimited messages from the resulting byte stream.
package transport

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"log"
	"net"
	"sync"
	"time"
)

const soh = byte(0x01)

// defaultSettleDelay mirrors the pause the original session app takes after
// starting its listener, so that an immediate rejection from the server
// (sent before the handshake even completes) isn't missed.
const defaultSettleDelay = 1 * time.Second

// defaultBufferLimit caps how many bytes a single readUntil call will
// accumulate before giving up - a malformed or endless stream (no BeginString,
// no checksum marker) must not be allowed to grow the buffer without bound.
const defaultBufferLimit = 64 << 20 // 64Mb, matching the teacher's asyncio.open_connection limit

// BufferOverrunError is returned when a message could not be framed within
// the configured buffer limit.
type BufferOverrunError struct {
	Limit int
}

func (e *BufferOverrunError) Error() string {
	return fmt.Sprintf("transport: buffer limit of %d bytes exceeded before a complete message was framed", e.Limit)
}

// Transport owns the TCP connection to a FIX server and frames raw messages
// out of its read side.
type Transport struct {
	conn        net.Conn
	reader      *bufio.Reader
	beginString string
	settleDelay time.Duration
	bufferLimit int
	logger      *log.Logger

	// sendMu serializes writes to conn. The pipeline's own send mutex keeps
	// a single Pipeline.Send call atomic end to end, but a resend/gap-fill
	// send bypasses the pipeline and writes here directly, so this is the
	// one lock guaranteed to cover every writer of this connection.
	sendMu sync.Mutex
}

// Dial connects to host:port and returns a Transport ready to Listen/Send.
// beginString is the exact "8=FIX.4.4" style prefix (including the "8=")
// used to detect the start of a message in the stream.
func Dial(host string, port int, beginString string, logger *log.Logger) (*Transport, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	addr := fmt.Sprintf("%s:%d", host, port)
	logger.Printf("transport: establishing connection to %s...", addr)
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", addr, err)
	}
	logger.Printf("transport: connected")

	return &Transport{
		conn:        conn,
		reader:      bufio.NewReaderSize(conn, 64*1024),
		beginString: beginString,
		settleDelay: defaultSettleDelay,
		bufferLimit: defaultBufferLimit,
		logger:      logger,
	}, nil
}

// SetSettleDelay overrides the pause taken after Listen starts, before the
// caller proceeds with the logon handshake.
func (t *Transport) SetSettleDelay(d time.Duration) {
	t.settleDelay = d
}

// Settle blocks for the configured settle delay, giving the read goroutine
// time to start pulling from the connection before the handshake begins.
func (t *Transport) Settle() {
	time.Sleep(t.settleDelay)
}

// Send writes a single, already-encoded FIX message to the connection.
func (t *Transport) Send(data []byte) error {
	t.sendMu.Lock()
	defer t.sendMu.Unlock()

	_, err := t.conn.Write(data)
	if err != nil {
		return fmt.Errorf("transport: write: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (t *Transport) Close() error {
	t.logger.Printf("transport: initiating disconnect...")
	err := t.conn.Close()
	t.logger.Printf("transport: session closed")
	return err
}

// Listen reads from the connection forever, emitting one complete raw
// message per call to handle. It returns when the connection is closed or a
// framing error occurs; the returned error is nil on a clean EOF following a
// Logout message (recognized by sniffing the last framed bytes), matching
// the teacher's tolerance for a server that closes immediately after
// logging out.
func (t *Transport) Listen(handle func(data []byte)) error {
	beginMarker := []byte(t.beginString)
	checksumMarker := append([]byte{soh}, []byte("10=")...)

	var lastFrame []byte
	for {
		data, err := t.readUntil(beginMarker)
		if err != nil {
			if err == io.EOF && len(data) == 0 && bytes.Contains(lastFrame, []byte("35=5"+string(soh))) {
				// The connection closed right after a complete Logout frame.
				return nil
			}
			return t.handleReadErr(err, data)
		}

		rest, err := t.readUntil(checksumMarker)
		if err != nil {
			return t.handleReadErr(err, append(data, rest...))
		}
		data = append(data, rest...)

		tail, err := t.readUntil([]byte{soh})
		if err != nil {
			return t.handleReadErr(err, append(data, tail...))
		}
		data = append(data, tail...)

		handle(data)
		lastFrame = data
	}
}

func (t *Transport) handleReadErr(err error, partial []byte) error {
	if err == io.EOF && bytes.Contains(partial, []byte("35=5"+string(soh))) {
		// The connection closed right after a Logout - not an error.
		return nil
	}
	if _, ok := err.(*BufferOverrunError); ok {
		t.logger.Printf("transport: %v", err)
		return err
	}
	if err == io.EOF {
		t.logger.Printf("transport: unexpected EOF waiting for next chunk of partial data %q", partial)
		return err
	}
	return err
}

// readUntil accumulates bytes from the connection until delim has been seen
// as a suffix of the accumulated buffer, returning everything read
// (including delim). It is the Go analogue of asyncio's
// StreamReader.readuntil for a multi-byte delimiter.
func (t *Transport) readUntil(delim []byte) ([]byte, error) {
	var buf []byte
	for {
		b, err := t.reader.ReadByte()
		if err != nil {
			return buf, err
		}
		buf = append(buf, b)
		if len(buf) > t.bufferLimit {
			return buf, &BufferOverrunError{Limit: t.bufferLimit}
		}
		if bytes.HasSuffix(buf, delim) {
			return buf, nil
		}
	}
}
