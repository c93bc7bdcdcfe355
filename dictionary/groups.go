package dictionary

// DefaultMsgType is the wildcard a group template registers under when it
// applies regardless of message type.
const DefaultMsgType = "*"

// GroupTemplate describes a repeating group: the tag that announces how many
// instances follow (the NoXXX counter), the ordered list of tags that make
// up one instance, and - for an instance tag that is itself a nested group's
// own identifier tag - the nested template to recurse into, keyed by that
// tag.
type GroupTemplate struct {
	IdentifierTag int
	InstanceTags  []int
	Nested        map[int]GroupTemplate
}

// templateKey pairs a group's identifier tag with the message type its
// shape applies to: the same identifier tag can template a different
// instance layout per message type, so message type must be known before a
// group can be recognized, let alone parsed.
type templateKey struct {
	identifierTag int
	msgType       string
}

// groupTemplates is the registry the wire decoder consults to recognize
// where a repeating group starts in the tag stream and how long each of its
// instances is. Only the groups this engine's message model exercises are
// registered; a counterparty-specific extension would add to this table
// rather than replace it.
var groupTemplates = map[templateKey]GroupTemplate{
	{453, DefaultMsgType}: {IdentifierTag: 453, InstanceTags: []int{448, 447, 452}}, // NoPartyIDs
	{539, DefaultMsgType}: { // NoNestedPartyIDs, each instance carrying a nested NoNestedPartySubIDs (804) group
		IdentifierTag: 539,
		InstanceTags:  []int{524, 525, 538, 804},
		Nested: map[int]GroupTemplate{
			804: {IdentifierTag: 804, InstanceTags: []int{545, 805}},
		},
	},
}

// Group returns the template registered for identifierTag under msgType,
// falling back to the DefaultMsgType template if no message-type-specific
// one is registered.
func Group(identifierTag int, msgType string) (GroupTemplate, bool) {
	if t, ok := groupTemplates[templateKey{identifierTag, msgType}]; ok {
		return t, true
	}
	t, ok := groupTemplates[templateKey{identifierTag, DefaultMsgType}]
	return t, ok
}

// IsGroupIdentifier reports whether tag announces a repeating group under
// msgType (or the DefaultMsgType default).
func IsGroupIdentifier(tag int, msgType string) bool {
	_, ok := Group(tag, msgType)
	return ok
}

// RegisterGroup adds or replaces the group template for identifierTag under
// msgType (pass DefaultMsgType to register the fallback used by every
// message type without its own override). Exposed so callers with their own
// dictionary extensions (a counterparty's custom tags or group shapes, or
// the group_templates configuration surface) can extend the table without
// forking the package.
func RegisterGroup(identifierTag int, msgType string, instanceTags []int, nested map[int]GroupTemplate) {
	groupTemplates[templateKey{identifierTag, msgType}] = GroupTemplate{
		IdentifierTag: identifierTag,
		InstanceTags:  instanceTags,
		Nested:        nested,
	}
}
