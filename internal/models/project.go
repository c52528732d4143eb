package models

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/harrison/ethocode/internal/timecode"
)

// Observation types.
const (
	ObservationMedia = "MEDIA"
	ObservationLive  = "LIVE"
)

// Project is the persisted project document.
// Keys not modelled here are kept in Extra and written back unchanged.
type Project struct {
	Name                 string                 `json:"project_name"`
	Date                 string                 `json:"project_date"`
	Description          string                 `json:"project_description"`
	TimeFormat           string                 `json:"time_format"`
	Subjects             map[string]Subject     `json:"subjects_conf"`
	Ethogram             map[string]Behavior    `json:"ethogram"`
	BehavioralCategories []string               `json:"behavioral_categories"`
	Observations         map[string]Observation `json:"observations"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Observation is one coded session with its events and media description.
type Observation struct {
	Type                        string              `json:"type"`
	Date                        string              `json:"date"`
	Description                 string              `json:"description"`
	Files                       map[string][]string `json:"file"`
	TimeOffset                  timecode.Value      `json:"time offset"`
	TimeOffsetSecondPlayer      timecode.Value      `json:"time offset second player"`
	Events                      []Event             `json:"events"`
	MediaInfo                   MediaInfo           `json:"media_info"`
	CloseBehaviorsBetweenVideos bool                `json:"close_behaviors_between_videos"`

	Extra map[string]json.RawMessage `json:"-"`
}

// MediaInfo caches probe results per media file path.
type MediaInfo struct {
	Length   map[string]timecode.Value `json:"length"`
	FPS      map[string]float64        `json:"fps"`
	HasVideo map[string]bool           `json:"hasVideo"`
	HasAudio map[string]bool           `json:"hasAudio"`
}

// Track returns the media paths of player 1 or 2.
func (o Observation) Track(n int) []string {
	return o.Files[strconv.Itoa(n)]
}

// MediaLength sums the cached lengths of track 1.
// ok is false for live observations or when a length is missing.
func (o Observation) MediaLength() (timecode.Value, bool) {
	paths := o.Track(1)
	if o.Type == ObservationLive || len(paths) == 0 {
		return timecode.Zero, false
	}
	total := timecode.Zero
	for _, p := range paths {
		l, ok := o.MediaInfo.Length[p]
		if !ok {
			return timecode.Zero, false
		}
		total = total.Add(l)
	}
	return total, true
}

// EthogramIndex returns the ethogram ordered by its numeric keys.
func (p *Project) EthogramIndex() *Ethogram {
	behaviors := make([]Behavior, 0, len(p.Ethogram))
	for _, k := range sortedIndexKeys(p.Ethogram) {
		behaviors = append(behaviors, p.Ethogram[k])
	}
	return NewEthogram(behaviors...)
}

// SubjectList returns the subjects ordered by their numeric keys.
func (p *Project) SubjectList() []Subject {
	out := make([]Subject, 0, len(p.Subjects))
	for _, k := range sortedIndexKeys(p.Subjects) {
		out = append(out, p.Subjects[k])
	}
	return out
}

// SubjectNames returns the subject names, starting with the "no focal subject" entry.
func (p *Project) SubjectNames() []string {
	names := []string{NoFocalSubject}
	for _, s := range p.SubjectList() {
		if s.Name != NoFocalSubject {
			names = append(names, s.Name)
		}
	}
	return names
}

// ObservationIDs returns the observation ids sorted alphabetically.
func (p *Project) ObservationIDs() []string {
	ids := make([]string, 0, len(p.Observations))
	for id := range p.Observations {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// sortedIndexKeys orders "0", "1", ..., "10" numerically, other keys after them alphabetically.
func sortedIndexKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		default:
			return keys[i] < keys[j]
		}
	})
	return keys
}

// MarshalJSON writes the project and its preserved unknown keys.
func (p Project) MarshalJSON() ([]byte, error) {
	type plain Project
	return marshalWithExtra(plain(p), p.Extra)
}

// UnmarshalJSON reads the project and keeps unknown keys in Extra.
func (p *Project) UnmarshalJSON(data []byte) error {
	type plain Project
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	extra, err := collectExtra(data, reflect.TypeOf(v))
	if err != nil {
		return err
	}
	*p = Project(v)
	p.Extra = extra
	return nil
}

// MarshalJSON writes the observation and its preserved unknown keys.
func (o Observation) MarshalJSON() ([]byte, error) {
	type plain Observation
	if o.Events == nil {
		o.Events = []Event{}
	}
	return marshalWithExtra(plain(o), o.Extra)
}

// UnmarshalJSON reads the observation and keeps unknown keys in Extra.
func (o *Observation) UnmarshalJSON(data []byte) error {
	type plain Observation
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	extra, err := collectExtra(data, reflect.TypeOf(v))
	if err != nil {
		return err
	}
	*o = Observation(v)
	o.Extra = extra
	return nil
}

func marshalWithExtra(v interface{}, extra map[string]json.RawMessage) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if len(extra) == 0 {
		return data, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	for k, raw := range extra {
		if _, known := fields[k]; !known {
			fields[k] = raw
		}
	}
	return json.Marshal(fields)
}

func collectExtra(data []byte, t reflect.Type) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("decode object: %w", err)
	}
	for i := 0; i < t.NumField(); i++ {
		name := strings.Split(t.Field(i).Tag.Get("json"), ",")[0]
		if name != "" && name != "-" {
			delete(fields, name)
		}
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return fields, nil
}
