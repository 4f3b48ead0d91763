// Package settings holds the runtime-mutable guild configuration: the
// command prefix, routing channels, application questions, and the banned
// word list. Values start from the loaded config and can be changed at
// runtime without a restart.
package settings

import "sync"

type Store struct {
	mu             sync.RWMutex
	prefix         string
	modMailChannel string
	logChannel     string
	questions      []string
	bannedWords    []string
}

type Snapshot struct {
	Prefix         string
	ModMailChannel string
	LogChannel     string
	Questions      []string
	BannedWords    []string
}

func New(prefix, modMailChannel, logChannel string, questions, bannedWords []string) *Store {
	if len(questions) == 0 {
		questions = []string{
			"Why do you want to be a mod?",
			"What experience do you have?",
		}
	}
	return &Store{
		prefix:         prefix,
		modMailChannel: modMailChannel,
		logChannel:     logChannel,
		questions:      copyStrings(questions),
		bannedWords:    copyStrings(bannedWords),
	}
}

func (s *Store) Prefix() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefix
}

func (s *Store) SetPrefix(prefix string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefix = prefix
}

func (s *Store) ModMailChannel() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modMailChannel
}

func (s *Store) LogChannel() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.logChannel
}

func (s *Store) Questions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyStrings(s.questions)
}

func (s *Store) BannedWords() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyStrings(s.bannedWords)
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Prefix:         s.prefix,
		ModMailChannel: s.modMailChannel,
		LogChannel:     s.logChannel,
		Questions:      copyStrings(s.questions),
		BannedWords:    copyStrings(s.bannedWords),
	}
}

func copyStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
