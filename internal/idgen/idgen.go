// Package idgen provides short, URL-safe unique ID generation backed by nanoid.
package idgen

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for each kind of record. The prefix makes an ID self-describing
// in logs and exports.
const (
	PrefixHackathon   = "hk-"
	PrefixParticipant = "pt-"
	PrefixTeam        = "tm-"
	PrefixTransfer    = "tr-"
)

// Alphabet defines the character set used for the random portion of the ID.
var Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Length is the number of random characters generated (excluding the prefix).
var Length = 10

// Hackathon returns a new hackathon ID.
func Hackathon() (string, error) { return GenerateWithPrefix(PrefixHackathon) }

// Participant returns a new participant ID.
func Participant() (string, error) { return GenerateWithPrefix(PrefixParticipant) }

// Team returns a new team ID.
func Team() (string, error) { return GenerateWithPrefix(PrefixTeam) }

// Transfer returns a new pending-transfer ID.
func Transfer() (string, error) { return GenerateWithPrefix(PrefixTransfer) }

// GenerateWithPrefix returns a new unique ID with the given prefix.
func GenerateWithPrefix(prefix string) (string, error) {
	id, err := nanoid.Generate(Alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return prefix + id, nil
}
