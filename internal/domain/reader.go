package domain

// ReadingMode selects how pages are laid out
type ReadingMode string

const (
	ModeVertical   ReadingMode = "vertical"
	ModeHorizontal ReadingMode = "horizontal"
)

// ImageFit selects which viewport dimension a page is scaled to
type ImageFit string

const (
	FitWidth  ImageFit = "width"
	FitHeight ImageFit = "height"
)

// ReaderSettings controls page presentation
type ReaderSettings struct {
	Mode            ReadingMode `mapstructure:"mode"`
	Fit             ImageFit    `mapstructure:"fit"`
	ShowPageNumbers bool        `mapstructure:"show_page_numbers"`
	Brightness      int         `mapstructure:"brightness"`      // percent, 10-200
	ContainerWidth  int         `mapstructure:"container_width"` // terminal columns, 0 = full width
	HalfTone        bool        `mapstructure:"half_tone"`       // grayscale rendering
}

// Normalize clamps out-of-range values to usable defaults
func (s ReaderSettings) Normalize() ReaderSettings {
	if s.Mode != ModeHorizontal {
		s.Mode = ModeVertical
	}
	if s.Fit != FitHeight {
		s.Fit = FitWidth
	}
	switch {
	case s.Brightness == 0:
		s.Brightness = 100
	case s.Brightness < 10:
		s.Brightness = 10
	case s.Brightness > 200:
		s.Brightness = 200
	}
	if s.ContainerWidth < 0 {
		s.ContainerWidth = 0
	}
	return s
}

// ToggleMode flips between vertical and horizontal layouts
func (s ReaderSettings) ToggleMode() ReaderSettings {
	if s.Mode == ModeHorizontal {
		s.Mode = ModeVertical
	} else {
		s.Mode = ModeHorizontal
	}
	return s
}
