package score

import (
	"fmt"

	"github.com/roach88/segmaker/internal/ir"
)

// StaffName returns the staff context name for a template staff.
func StaffName(name string) string { return name + "_Staff" }

// VoiceName returns the voice context name for a template staff.
func VoiceName(name string) string { return name + "_Voice" }

// FromTemplate builds the context tree described by spec:
//
//	Score
//	  Global_Context (Global_Skips, Global_Rests)
//	  Music_Context
//	    <Name>_Staff
//	      <Name>_Voice
//
// Defaults named by the spec are attached by the segment maker, which owns
// manifest resolution.
func FromTemplate(spec ir.TemplateSpec) (*Score, error) {
	s := New()
	global, err := s.AddContext(s.Root, NameGlobalContext, TypeGlobalContext, true)
	if err != nil {
		return nil, err
	}
	if _, err := s.AddContext(global, NameGlobalSkips, TypeGlobalSkips, false); err != nil {
		return nil, err
	}
	if _, err := s.AddContext(global, NameGlobalRests, TypeGlobalRests, false); err != nil {
		return nil, err
	}
	music, err := s.AddContext(s.Root, NameMusicContext, TypeMusicContext, true)
	if err != nil {
		return nil, err
	}
	for _, st := range spec.Staves {
		if st.Name == "" {
			return nil, fmt.Errorf("template staff without name")
		}
		staff, err := s.AddContext(music, StaffName(st.Name), TypeStaff, false)
		if err != nil {
			return nil, fmt.Errorf("template staff %q: %w", st.Name, err)
		}
		if _, err := s.AddContext(staff, VoiceName(st.Name), TypeVoice, false); err != nil {
			return nil, fmt.Errorf("template staff %q: %w", st.Name, err)
		}
	}
	return s, nil
}

// Voices returns every voice context in score order.
func (s *Score) Voices() []*Context {
	var out []*Context
	for _, c := range s.Contexts() {
		if c.Type == TypeVoice {
			out = append(out, c)
		}
	}
	return out
}
