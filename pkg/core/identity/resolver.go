package identity

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/jakechorley/point-rota/pkg/core/model"
	"github.com/jakechorley/point-rota/pkg/db"
)

// ErrUnknownVolunteer is returned by resolvers that refuse to register new names
var ErrUnknownVolunteer = errors.New("unknown volunteer")

// Resolver maps a free-text name to a volunteer identity
type Resolver interface {
	Resolve(ctx context.Context, candidateName string) (model.Volunteer, error)
}

// OpenResolver registers any name it has not seen before.
// This is the default policy for a small trusted group, not an access control.
type OpenResolver struct {
	static   []string
	registry db.VolunteerStore
	logger   *zap.Logger
}

// NewOpenResolver creates a resolver over a static roster and a registry of dynamic names
func NewOpenResolver(static []string, registry db.VolunteerStore, logger *zap.Logger) *OpenResolver {
	return &OpenResolver{static: static, registry: registry, logger: logger}
}

// Resolve returns the known identity for the name or registers a new one
func (r *OpenResolver) Resolve(ctx context.Context, candidateName string) (model.Volunteer, error) {
	candidate, err := candidateFromName(candidateName)
	if err != nil {
		return model.Volunteer{}, err
	}

	known, found, err := lookup(ctx, candidate, r.static, r.registry)
	if err != nil {
		return model.Volunteer{}, err
	}
	if found {
		return known, nil
	}

	r.logger.Info("Registering new volunteer",
		zap.String("volunteer_id", candidate.ID),
		zap.String("name", candidate.Name))

	if err := r.registry.UpsertVolunteer(ctx, &candidate); err != nil {
		return model.Volunteer{}, fmt.Errorf("failed to register volunteer %s: %w", candidate.Name, err)
	}
	return candidate, nil
}

// AllowListResolver only accepts names already on the roster
type AllowListResolver struct {
	static   []string
	registry db.VolunteerStore
}

// NewAllowListResolver creates a resolver that never registers names
func NewAllowListResolver(static []string, registry db.VolunteerStore) *AllowListResolver {
	return &AllowListResolver{static: static, registry: registry}
}

// Resolve returns the known identity or ErrUnknownVolunteer
func (r *AllowListResolver) Resolve(ctx context.Context, candidateName string) (model.Volunteer, error) {
	candidate, err := candidateFromName(candidateName)
	if err != nil {
		return model.Volunteer{}, err
	}

	known, found, err := lookup(ctx, candidate, r.static, r.registry)
	if err != nil {
		return model.Volunteer{}, err
	}
	if !found {
		return model.Volunteer{}, fmt.Errorf("%w: %s", ErrUnknownVolunteer, candidate.Name)
	}
	return known, nil
}

func candidateFromName(name string) (model.Volunteer, error) {
	display := model.NormalizeName(name)
	if display == "" {
		return model.Volunteer{}, &model.ValidationError{Reason: "volunteer name is required"}
	}
	id := model.Slug(display)
	if id == "" {
		return model.Volunteer{}, &model.ValidationError{Reason: fmt.Sprintf("volunteer name %q has no letters or digits", name)}
	}
	return model.Volunteer{ID: id, Name: display}, nil
}

// lookup matches by slug, registered volunteers first, then the static roster
func lookup(ctx context.Context, candidate model.Volunteer, static []string, registry db.VolunteerStore) (model.Volunteer, bool, error) {
	registered, err := registry.GetVolunteers(ctx)
	if err != nil {
		return model.Volunteer{}, false, fmt.Errorf("failed to fetch registered volunteers: %w", err)
	}
	for _, v := range registered {
		if v.ID == candidate.ID {
			return v, true, nil
		}
	}

	for _, name := range static {
		if model.Slug(name) == candidate.ID {
			return model.Volunteer{ID: candidate.ID, Name: model.NormalizeName(name)}, true, nil
		}
	}

	return model.Volunteer{}, false, nil
}

// Roster is the sorted union of the static roster, registered volunteers and
// every name seen on a shift, deduplicated by slug. The first spelling wins.
// Shift names are included so a shift written before its volunteer record still shows up.
func Roster(static []string, registered []model.Volunteer, shifts []model.Shift) []string {
	seen := make(map[string]bool)
	names := make([]string, 0, len(static)+len(registered))

	add := func(name string) {
		display := model.NormalizeName(name)
		slug := model.Slug(display)
		if slug == "" || seen[slug] {
			return
		}
		seen[slug] = true
		names = append(names, display)
	}

	for _, name := range static {
		add(name)
	}
	for _, v := range registered {
		add(v.Name)
	}
	for _, s := range shifts {
		add(s.VolunteerName)
	}

	sort.Strings(names)
	return names
}
