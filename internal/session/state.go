// Package session holds the per-chat dashboard state and the transitions a
// user can apply to it. Transitions are pure: they return a new State and
// never mutate the receiver.
package session

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrUnknownAsset = errors.New("unknown asset")
	ErrWeightRange  = errors.New("weight must be between 0 and 100")
	ErrWeightStep   = errors.New("weight is not a multiple of the step")
	ErrIncomplete   = errors.New("weights do not total 100%")
	ErrEmptyName    = errors.New("portfolio name is empty")
	ErrNotFound     = errors.New("saved portfolio not found")
)

// State is everything the dashboard remembers about one chat.
type State struct {
	ChatID  int64            `json:"chat_id"`
	Assets  []string         `json:"assets"`  // display names in column order
	Weights map[string]int   `json:"weights"` // percent
	Saved   []SavedPortfolio `json:"saved,omitempty"`
}

// SavedPortfolio is a named snapshot of weights.
type SavedPortfolio struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Weights map[string]int `json:"weights"`
	Assets  []string       `json:"assets"`
	SavedAt time.Time      `json:"saved_at"`
}

// New starts a chat with every asset at the default weight of
// int(100 / number of assets).
func New(chatID int64, assets []string) State {
	s := State{ChatID: chatID, Assets: slices.Clone(assets)}
	return s.EqualWeights()
}

func (s State) clone() State {
	out := State{
		ChatID:  s.ChatID,
		Assets:  slices.Clone(s.Assets),
		Weights: maps.Clone(s.Weights),
		Saved:   slices.Clone(s.Saved),
	}
	if out.Weights == nil {
		out.Weights = map[string]int{}
	}
	return out
}

// WithAssets reconciles the state with a freshly loaded asset list. Weights
// of assets that disappeared are dropped; new assets start at 0.
func (s State) WithAssets(assets []string) State {
	out := s.clone()
	out.Assets = slices.Clone(assets)
	weights := make(map[string]int, len(assets))
	for _, a := range assets {
		weights[a] = out.Weights[a]
	}
	out.Weights = weights
	return out
}

// SetWeight sets one asset's percent. pct must lie in [0,100] and be a
// multiple of step.
func (s State) SetWeight(name string, pct, step int) (State, error) {
	asset, ok := s.resolve(name)
	if !ok {
		return s, fmt.Errorf("%w: %s", ErrUnknownAsset, name)
	}
	if pct < 0 || pct > 100 {
		return s, fmt.Errorf("%w: %d", ErrWeightRange, pct)
	}
	if step > 0 && pct%step != 0 {
		return s, fmt.Errorf("%w: %d is not a multiple of %d", ErrWeightStep, pct, step)
	}
	out := s.clone()
	out.Weights[asset] = pct
	return out, nil
}

// EqualWeights resets every asset to int(100 / number of assets).
func (s State) EqualWeights() State {
	out := s.clone()
	out.Weights = make(map[string]int, len(out.Assets))
	if len(out.Assets) == 0 {
		return out
	}
	w := 100 / len(out.Assets)
	for _, a := range out.Assets {
		out.Weights[a] = w
	}
	return out
}

// ClearWeights sets every asset to 0.
func (s State) ClearWeights() State {
	out := s.clone()
	for _, a := range out.Assets {
		out.Weights[a] = 0
	}
	return out
}

// Save stores the current weights under name, replacing a portfolio of the
// same name (case-insensitive) but keeping its ID.
func (s State) Save(name string, now time.Time) (State, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return s, ErrEmptyName
	}
	if !s.Complete() {
		return s, fmt.Errorf("%w (currently %d%%)", ErrIncomplete, s.Total())
	}

	out := s.clone()
	p := SavedPortfolio{
		ID:      uuid.NewString(),
		Name:    name,
		Weights: maps.Clone(out.Weights),
		Assets:  slices.Clone(out.Assets),
		SavedAt: now,
	}
	if i := out.findSaved(name); i >= 0 {
		p.ID = out.Saved[i].ID
		out.Saved[i] = p
	} else {
		out.Saved = append(out.Saved, p)
	}
	return out, nil
}

// Load replaces the current weights with a saved portfolio's. Assets that
// are no longer offered are ignored; assets missing from the snapshot get 0.
func (s State) Load(name string) (State, error) {
	i := s.findSaved(name)
	if i < 0 {
		return s, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	out := s.clone()
	saved := out.Saved[i]
	for _, a := range out.Assets {
		out.Weights[a] = saved.Weights[a]
	}
	return out, nil
}

// Delete removes a saved portfolio.
func (s State) Delete(name string) (State, error) {
	i := s.findSaved(name)
	if i < 0 {
		return s, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	out := s.clone()
	out.Saved = slices.Delete(out.Saved, i, i+1)
	return out, nil
}

// Total is the sum of all weights in percent.
func (s State) Total() int {
	total := 0
	for _, a := range s.Assets {
		total += s.Weights[a]
	}
	return total
}

// Complete reports whether the weights total exactly 100%.
func (s State) Complete() bool {
	return s.Total() == 100
}

// WeightVector returns fractional weights aligned to columns. Columns not in
// the state get 0.
func (s State) WeightVector(columns []string) []float64 {
	out := make([]float64, len(columns))
	for i, c := range columns {
		out[i] = float64(s.Weights[c]) / 100
	}
	return out
}

// Holding is one asset with a positive weight.
type Holding struct {
	Name    string
	Percent int
}

// Held lists assets with weight > 0 in column order.
func (s State) Held() []Holding {
	var out []Holding
	for _, a := range s.Assets {
		if w := s.Weights[a]; w > 0 {
			out = append(out, Holding{Name: a, Percent: w})
		}
	}
	return out
}

// SavedNames lists saved portfolio names alphabetically.
func (s State) SavedNames() []string {
	out := make([]string, len(s.Saved))
	for i, p := range s.Saved {
		out[i] = p.Name
	}
	sort.Strings(out)
	return out
}

// resolve matches an asset case-insensitively, accepting a unique prefix.
func (s State) resolve(name string) (string, bool) {
	name = strings.TrimSpace(name)
	for _, a := range s.Assets {
		if strings.EqualFold(a, name) {
			return a, true
		}
	}
	var match string
	for _, a := range s.Assets {
		if name != "" && strings.HasPrefix(strings.ToLower(a), strings.ToLower(name)) {
			if match != "" {
				return "", false
			}
			match = a
		}
	}
	return match, match != ""
}

func (s State) findSaved(name string) int {
	name = strings.TrimSpace(name)
	for i, p := range s.Saved {
		if strings.EqualFold(p.Name, name) {
			return i
		}
	}
	return -1
}
