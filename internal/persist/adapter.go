package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	apperrors "github.com/diogo/chatui/internal/errors"
	"github.com/diogo/chatui/internal/metrics"
	"github.com/diogo/chatui/internal/models"
)

// CurrentVersion is the envelope version written by Encode
const CurrentVersion = 0

// envelope is the persisted record: {"state": {...}, "version": 0}
type envelope struct {
	State   models.Snapshot `json:"state"`
	Version int             `json:"version"`
}

// Encode wraps snap in the versioned envelope
func Encode(snap models.Snapshot) ([]byte, error) {
	if snap.Sessions == nil {
		snap.Sessions = []models.Session{}
	}
	return json.Marshal(envelope{State: snap, Version: CurrentVersion})
}

// Decode parses an envelope. Settings fields missing from the stored state
// take their default; out-of-range values are clamped.
func Decode(data []byte) (*models.Snapshot, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid JSON")
	}

	if v := gjson.GetBytes(data, "version"); v.Exists() && v.Int() != CurrentVersion {
		return nil, fmt.Errorf("%w: %d", apperrors.ErrUnsupportedVersion, v.Int())
	}

	state := gjson.GetBytes(data, "state")
	if !state.IsObject() {
		return nil, fmt.Errorf("envelope has no state object")
	}
	return decodeState([]byte(state.Raw))
}

func decodeState(raw []byte) (*models.Snapshot, error) {
	snap := models.Snapshot{Settings: models.DefaultSettings()}
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse state: %w", err)
	}

	s := snap.Settings
	snap.Settings = models.DefaultSettings().Apply(models.SettingsPatch{
		SystemPrompt: &s.SystemPrompt,
		Temperature:  &s.Temperature,
		MaxTokens:    &s.MaxTokens,
	})

	if snap.Sessions == nil {
		snap.Sessions = []models.Session{}
	}
	for i := range snap.Sessions {
		if snap.Sessions[i].Messages == nil {
			snap.Sessions[i].Messages = []models.Message{}
		}
	}
	return &snap, nil
}

// Adapter serializes snapshots into a Slot under a fixed key. It satisfies
// the store's Backend interface.
type Adapter struct {
	slot Slot
	key  string
	log  zerolog.Logger
}

// AdapterOption configures an Adapter
type AdapterOption func(*Adapter)

// WithAdapterLogger sets the logger
func WithAdapterLogger(log zerolog.Logger) AdapterOption {
	return func(a *Adapter) { a.log = log }
}

// NewAdapter creates an adapter storing under key
func NewAdapter(slot Slot, key string, opts ...AdapterOption) *Adapter {
	a := &Adapter{slot: slot, key: key, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Load returns (nil, nil) when the slot is empty
func (a *Adapter) Load(ctx context.Context) (*models.Snapshot, error) {
	data, err := a.slot.Get(ctx, a.key)
	if errors.Is(err, ErrNoSnapshot) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewPersistError("load", a.slot.Name(), err)
	}

	snap, err := Decode(data)
	if err != nil {
		return nil, apperrors.NewPersistError("load", a.slot.Name(), err)
	}
	return snap, nil
}

// Save writes the full snapshot
func (a *Adapter) Save(ctx context.Context, snap models.Snapshot) error {
	data, err := Encode(snap)
	if err == nil {
		err = a.slot.Put(ctx, a.key, data)
	}
	metrics.IncPersistWrite(a.slot.Name(), err == nil)
	if err != nil {
		return apperrors.NewPersistError("save", a.slot.Name(), err)
	}

	a.log.Trace().Str("backend", a.slot.Name()).Int("bytes", len(data)).Msg("snapshot saved")
	return nil
}

// Name returns the backend name of the underlying slot
func (a *Adapter) Name() string { return a.slot.Name() }

// Close releases the slot
func (a *Adapter) Close() error { return a.slot.Close() }
