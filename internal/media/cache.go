package media

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/harrison/ethocode/internal/models"
	"github.com/harrison/ethocode/internal/timecode"
	"github.com/harrison/ethocode/internal/timeline"
)

// Store persists probe results between runs.
type Store interface {
	Get(ctx context.Context, path string) (Info, bool, error)
	Put(ctx context.Context, path string, info Info) error
}

type cacheEntry struct {
	info Info
	err  error
}

// Cache memoizes probe results per path, failures included, so each path
// reaches the Prober at most once per process.
type Cache struct {
	prober Prober
	store  Store

	// Warn receives non-fatal persistence failures. Optional.
	Warn func(message string)

	mu      sync.Mutex
	entries map[string]cacheEntry
}

// NewCache wraps prober. store may be nil to keep results in memory only.
func NewCache(prober Prober, store Store) *Cache {
	return &Cache{
		prober:  prober,
		store:   store,
		entries: make(map[string]cacheEntry),
	}
}

// Seed records an already known result, such as the media_info saved in a project.
func (c *Cache) Seed(path string, info Info) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[path] = cacheEntry{info: info}
}

// SeedObservation loads every complete media_info entry of an observation.
func (c *Cache) SeedObservation(obs models.Observation) {
	for path, length := range obs.MediaInfo.Length {
		if length.Sign() <= 0 {
			continue
		}
		c.Seed(path, Info{
			Duration: length,
			FPS:      obs.MediaInfo.FPS[path],
			HasVideo: obs.MediaInfo.HasVideo[path],
			HasAudio: obs.MediaInfo.HasAudio[path],
		})
	}
}

// Probe returns the cached result for path, probing on a miss.
func (c *Cache) Probe(ctx context.Context, path string) (Info, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[path]; ok {
		return e.info, e.err
	}

	if c.store != nil {
		info, ok, err := c.store.Get(ctx, path)
		if err == nil && ok {
			c.entries[path] = cacheEntry{info: info}
			return info, nil
		}
	}

	if c.prober == nil {
		err := fmt.Errorf("%w: %s: no prober configured", ErrProbeFailure, path)
		c.entries[path] = cacheEntry{err: err}
		return Info{}, err
	}

	info, err := c.prober.Probe(ctx, path)
	if err != nil {
		if !errors.Is(err, ErrProbeFailure) {
			err = fmt.Errorf("%w: %s: %v", ErrProbeFailure, path, err)
		}
		c.entries[path] = cacheEntry{err: err}
		return Info{}, err
	}
	c.entries[path] = cacheEntry{info: info}

	if c.store != nil {
		if err := c.store.Put(ctx, path, info); err != nil && c.Warn != nil {
			c.Warn(fmt.Sprintf("persist probe result for %s: %v", path, err))
		}
	}
	return info, nil
}

// Segments probes each path in order and builds the track's segment list.
func (c *Cache) Segments(ctx context.Context, paths []string) ([]timeline.Segment, error) {
	segs := make([]timeline.Segment, 0, len(paths))
	for _, p := range paths {
		info, err := c.Probe(ctx, p)
		if err != nil {
			return nil, err
		}
		segs = append(segs, timeline.Segment{
			Path:       p,
			Duration:   info.Duration,
			FPS:        info.FPS,
			FrameCount: info.FrameCount,
			HasVideo:   info.HasVideo,
			HasAudio:   info.HasAudio,
		})
	}
	return segs, nil
}

// Record writes the segments back into the observation's media_info.
func Record(obs *models.Observation, segs []timeline.Segment) {
	mi := &obs.MediaInfo
	if mi.Length == nil {
		mi.Length = map[string]timecode.Value{}
	}
	if mi.FPS == nil {
		mi.FPS = map[string]float64{}
	}
	if mi.HasVideo == nil {
		mi.HasVideo = map[string]bool{}
	}
	if mi.HasAudio == nil {
		mi.HasAudio = map[string]bool{}
	}
	for _, s := range segs {
		mi.Length[s.Path] = s.Duration
		mi.FPS[s.Path] = s.FPS
		mi.HasVideo[s.Path] = s.HasVideo
		mi.HasAudio[s.Path] = s.HasAudio
	}
}
