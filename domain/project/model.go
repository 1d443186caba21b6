package project

import (
	"time"

	"github.com/google/uuid"
)

// SequenceType tags a sequence in a track cache.
type SequenceType uint8

const (
	SequenceRaster SequenceType = 1
	SequenceCursor SequenceType = 2
	SequenceKey    SequenceType = 3
)

func (t SequenceType) String() string {
	switch t {
	case SequenceRaster:
		return "raster"
	case SequenceCursor:
		return "cursor"
	case SequenceKey:
		return "key"
	default:
		return "unknown"
	}
}

// SubSequenceType tags a sub-sequence record in a track cache.
type SubSequenceType uint8

const (
	SubSequenceFrame  SubSequenceType = 1
	SubSequenceCursor SubSequenceType = 2
	SubSequenceKey    SubSequenceType = 3
)

// RasterOrigin tells where raster frames came from.
type RasterOrigin uint8

const (
	OriginScreen     RasterOrigin = 0
	OriginWebcam     RasterOrigin = 1
	OriginImport     RasterOrigin = 2
	OriginRasterized RasterOrigin = 3
)

// Track names written by the converter.
const (
	FramesTrackName = "Frames"
	CursorTrackName = "Cursor Events"
	KeyTrackName    = "Key Events"
)

// Track is a named lane of sequences with its own cache file.
type Track struct {
	ID        uint16
	Name      string
	IsVisible bool
	IsLocked  bool
	CachePath string
	Sequences []Sequence
}

// NewTrack returns a visible, unlocked track.
func NewTrack(id uint16, name, cachePath string) *Track {
	return &Track{ID: id, Name: name, IsVisible: true, CachePath: cachePath}
}

// AddSequence appends s and assigns it the next id in the track, starting
// at 1.
func (t *Track) AddSequence(s Sequence) uint16 {
	id := uint16(len(t.Sequences) + 1)
	s.base().ID = id
	t.Sequences = append(t.Sequences, s)
	return id
}

// CachedProject is the editor-facing result of a conversion.
type CachedProject struct {
	ID                   uuid.UUID
	CacheRootPath        string
	PropertiesCachePath  string
	UndoCachePath        string
	RedoCachePath        string
	CreationDate         time.Time
	LastModificationDate time.Time

	Width          int
	Height         int
	HorizontalDpi  float64
	VerticalDpi    float64
	ChannelCount   uint8
	BitsPerChannel uint8
	Background     string

	Tracks []*Track
}

// NextTrackID returns the id the next added track receives.
func (p *CachedProject) NextTrackID() uint16 { return uint16(len(p.Tracks) + 1) }

// AddTrack appends t, assigning the next track id if t has none.
func (p *CachedProject) AddTrack(t *Track) {
	if t.ID == 0 {
		t.ID = p.NextTrackID()
	}
	p.Tracks = append(p.Tracks, t)
}

// Track returns the track with the given name.
func (p *CachedProject) Track(name string) (*Track, bool) {
	for _, t := range p.Tracks {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}
