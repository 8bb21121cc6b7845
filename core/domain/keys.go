package domain

import "strings"

// Registry key shapes. All fleet state lives in the shared key/value store
// under these keys; the sets below index the primary keys so enumeration
// endpoints never have to scan.
const (
	// ClientsSet holds the names of all registered clients.
	ClientsSet = "clients"

	// AggregatesSet holds the names of all known aggregates.
	AggregatesSet = "aggregates"

	// StashesSet holds the paths of all stored stashes.
	StashesSet = "stashes"
)

// ClientKey returns the key holding a client's registration JSON.
func ClientKey(name string) string {
	return "client:" + name
}

// ClientSignatureKey returns the key holding a client's signature blob.
// The signature is written by the rest of the pipeline; the API only
// deletes it alongside the client.
func ClientSignatureKey(name string) string {
	return "client:" + name + ":signature"
}

// EventsKey returns the hash key holding a client's current events,
// one field per check name.
func EventsKey(client string) string {
	return "events:" + client
}

// ResultKey returns the key holding the latest raw result for a
// (client, check) pair.
func ResultKey(client, check string) string {
	return "result:" + client + ":" + check
}

// ResultSetKey returns the set key enumerating the checks a client has
// results for.
func ResultSetKey(client string) string {
	return "result:" + client
}

// HistoryKey returns the list key holding a check's recent status codes
// for a client, oldest first.
func HistoryKey(client, check string) string {
	return "history:" + client + ":" + check
}

// AggregateKey returns the set key holding an aggregate's members.
func AggregateKey(name string) string {
	return "aggregates:" + name
}

// AggregateMember encodes a (client, check) pair as an aggregate set member.
func AggregateMember(client, check string) string {
	return client + ":" + check
}

// SplitAggregateMember decodes an aggregate set member into its client and
// check parts. Client names cannot contain colons, so the first colon is
// the separator. Returns ok=false for members with no separator.
func SplitAggregateMember(member string) (client, check string, ok bool) {
	client, check, ok = strings.Cut(member, ":")
	return client, check, ok && client != "" && check != ""
}

// StashKey returns the key holding a stash's JSON content.
func StashKey(path string) string {
	return "stash:" + path
}
