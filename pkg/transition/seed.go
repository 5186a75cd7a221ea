package transition

import (
	"context"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/statekit/pkg/state"
)

// Definition describes model enums, transitions and their grants in YAML:
//
//	models:
//	  payment: [pending, approved, declined]
//	transitions:
//	  - model: payment
//	    from: pending
//	    to: approved
//	    users: ["42"]
//	    roles: [accountant]
type Definition struct {
	Models      map[string][]string `yaml:"models"`
	Transitions []TransitionDef     `yaml:"transitions"`
}

// TransitionDef is a single transition entry of a Definition.
type TransitionDef struct {
	Model string   `yaml:"model"`
	From  string   `yaml:"from"`
	To    string   `yaml:"to"`
	Users []string `yaml:"users,omitempty"`
	Roles []string `yaml:"roles,omitempty"`
}

// SeedResult counts what Seed did.
type SeedResult struct {
	Registered int
	Existing   int
	Granted    int
}

// ParseDefinition decodes a YAML definition.
func ParseDefinition(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDefinition, err)
	}
	for i, td := range def.Transitions {
		if strings.TrimSpace(td.Model) == "" || strings.TrimSpace(td.From) == "" || strings.TrimSpace(td.To) == "" {
			return nil, fmt.Errorf("%w: transition #%d needs model, from and to", ErrInvalidDefinition, i+1)
		}
	}
	return &def, nil
}

// LoadDefinition reads and decodes a YAML definition file.
func LoadDefinition(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read definition: %w", err)
	}
	return ParseDefinition(data)
}

// Registry builds a state registry with a StringState enum per declared model.
// Extra options, such as loaders, are applied after the models.
func (d *Definition) Registry(opts ...state.Option) (*state.Registry, error) {
	all := make([]state.Option, 0, len(d.Models)+len(opts))
	for _, name := range slices.Sorted(maps.Keys(d.Models)) {
		enum, err := state.StringEnum(d.Models[name]...)
		if err != nil {
			return nil, fmt.Errorf("%w: model '%s': %w", ErrInvalidDefinition, name, err)
		}
		all = append(all, state.WithModel(state.ModelType(name), enum))
	}
	all = append(all, opts...)
	return state.NewRegistry(all...)
}

// Seed registers every transition of the definition and grants it to the
// listed users and roles. Transitions that already exist are reused, so
// seeding the same definition twice is safe.
func Seed(ctx context.Context, catalog *Catalog, index *Index, def *Definition) (SeedResult, error) {
	var res SeedResult
	for _, td := range def.Transitions {
		modelType := state.ModelType(td.Model)

		t, err := catalog.Register(ctx, modelType, td.From, td.To)
		switch {
		case err == nil:
			res.Registered++
		case IsDuplicateError(err):
			if t, err = catalog.Find(ctx, modelType, td.From, td.To); err != nil {
				return res, err
			}
			res.Existing++
		default:
			return res, err
		}

		principals := make([]Principal, 0, len(td.Users)+len(td.Roles))
		for _, id := range td.Users {
			principals = append(principals, index.User(id))
		}
		for _, id := range td.Roles {
			principals = append(principals, index.Role(id))
		}
		for _, p := range principals {
			if err := index.Grant(ctx, t.ID, p); err != nil {
				return res, err
			}
			res.Granted++
		}
	}
	return res, nil
}
