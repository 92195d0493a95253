// Package meme encodes, decodes, mints and branches lineage identities.
//
// An identity ("meme") is either a bare UUID
//
//	2a0c0bd2-9a4b-11ee-8c90-0242ac120002
//
// or the UUID extended with a branch count and a sliding window of the most
// recent branch tokens
//
//	2a0c0bd2-9a4b-11ee-8c90-0242ac120002-12-1f3a-...-00c2
//
// The count is the total number of duplication events the lineage went
// through and never decreases. The window holds at most MaxBranchTokens
// four-character tokens; once full, a new token displaces the oldest.
//
// Two identities belong to the same lineage iff their UUID parts match.
package meme
