package player

import (
	"fmt"

	"github.com/nezuko-cli/nezuko/aniskip"
	"github.com/nezuko-cli/nezuko/log"
	"github.com/nezuko-cli/nezuko/source"
)

// Seeker moves playback. *MPV satisfies it.
type Seeker interface {
	Seek(seconds float64) error
}

// Skipper seeks past the opening and ending. Each range is skipped once,
// so seeking back into it by hand is respected.
type Skipper struct {
	seeker Seeker
	intro  *source.Interval
	outro  *source.Interval

	introDone bool
	outroDone bool
}

// NewSkipper prefers the ranges reported with the stream over AniSkip's.
func NewSkipper(seeker Seeker, stream *source.Stream, times *aniskip.SkipTimes) *Skipper {
	s := &Skipper{seeker: seeker}

	if stream != nil {
		if stream.Intro.Valid() {
			s.intro = stream.Intro
		}
		if stream.Outro.Valid() {
			s.outro = stream.Outro
		}
	}

	if times != nil {
		if s.intro == nil && times.Opening.Valid() {
			s.intro = times.Opening
		}
		if s.outro == nil && times.Ending.Valid() {
			s.outro = times.Ending
		}
	}

	return s
}

// Empty reports whether there is nothing to skip.
func (s *Skipper) Empty() bool {
	return s.intro == nil && s.outro == nil
}

func inside(i *source.Interval, pos float64) bool {
	return i != nil && pos >= i.Start && pos < i.End
}

// Check skips when pos falls inside a range not skipped yet.
func (s *Skipper) Check(pos float64) (bool, error) {
	switch {
	case !s.introDone && inside(s.intro, pos):
		s.introDone = true
		log.Infof("skipping intro: %.0f -> %.0f", pos, s.intro.End)
		if err := s.seeker.Seek(s.intro.End); err != nil {
			return false, fmt.Errorf("skip intro seek: %w", err)
		}
		return true, nil
	case !s.outroDone && inside(s.outro, pos):
		s.outroDone = true
		log.Infof("skipping outro: %.0f -> %.0f", pos, s.outro.End)
		if err := s.seeker.Seek(s.outro.End); err != nil {
			return false, fmt.Errorf("skip outro seek: %w", err)
		}
		return true, nil
	}
	return false, nil
}

// Chapters marks the ranges on the timeline.
func (s *Skipper) Chapters() []Chapter {
	if s.Empty() {
		return nil
	}

	chapters := []Chapter{{Title: "Part A", Time: 0}}

	if s.intro != nil {
		chapters = append(chapters,
			Chapter{Title: "Opening", Time: s.intro.Start},
			Chapter{Title: "Part B", Time: s.intro.End},
		)
	}

	if s.outro != nil {
		chapters = append(chapters,
			Chapter{Title: "Ending", Time: s.outro.Start},
			Chapter{Title: "Preview", Time: s.outro.End},
		)
	}

	return chapters
}
