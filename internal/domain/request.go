package domain

import (
	"errors"
	"fmt"
	"strings"
)

const (
	RequestModeSetupOnly = "setup_only"
	RequestModeStatic    = "static"
	RequestModeDynamic   = "dynamic"
)

// ExecutionRequest is everything one fuel run executes, in order: the setup
// commands first, then at most one of the two partition plans.
type ExecutionRequest struct {
	SetupCommands []string
	Static        *StaticPlan
	Dynamic       *DynamicPlan
}

// StaticPlan groups fragments at plan time. Groups are kept in a slice rather
// than keyed by command text so two chunks rendering the same SQL stay apart.
type StaticPlan struct {
	Groups []CommandGroup
}

type CommandGroup struct {
	ID        string
	Command   string
	Fragments []string
	Fallbacks []string
}

// DynamicPlan defers grouping to execution time.
type DynamicPlan struct {
	Template  string
	Fragments []string
	BatchSize int
}

func (r *ExecutionRequest) AddSetupCommand(command string) error {
	if strings.TrimSpace(command) == "" {
		return errors.New("setup command is required")
	}
	r.SetupCommands = append(r.SetupCommands, command)
	return nil
}

func (r *ExecutionRequest) AddSetupCommands(commands []string) error {
	for _, command := range commands {
		if err := r.AddSetupCommand(command); err != nil {
			return err
		}
	}
	return nil
}

func (r *ExecutionRequest) SetStaticPlan(plan StaticPlan) error {
	if r.Dynamic != nil {
		return errors.New("request already has a dynamic plan")
	}
	if err := plan.Validate(); err != nil {
		return err
	}
	r.Static = &plan
	return nil
}

func (r *ExecutionRequest) SetDynamicPlan(plan DynamicPlan) error {
	if r.Static != nil {
		return errors.New("request already has a static plan")
	}
	if err := plan.Validate(); err != nil {
		return err
	}
	r.Dynamic = &plan
	return nil
}

func (r ExecutionRequest) Mode() string {
	switch {
	case r.Dynamic != nil:
		return RequestModeDynamic
	case r.Static != nil:
		return RequestModeStatic
	default:
		return RequestModeSetupOnly
	}
}

func (r ExecutionRequest) Validate() error {
	if r.Static != nil && r.Dynamic != nil {
		return errors.New("request cannot carry both a static and a dynamic plan")
	}
	for i, command := range r.SetupCommands {
		if strings.TrimSpace(command) == "" {
			return fmt.Errorf("setup command %d is blank", i)
		}
	}
	if r.Static != nil {
		if err := r.Static.Validate(); err != nil {
			return err
		}
	}
	if r.Dynamic != nil {
		if err := r.Dynamic.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (p StaticPlan) Validate() error {
	seen := make(map[string]struct{}, len(p.Groups))
	for i, group := range p.Groups {
		if strings.TrimSpace(group.ID) == "" {
			return fmt.Errorf("group %d: id is required", i)
		}
		if _, ok := seen[group.ID]; ok {
			return fmt.Errorf("group %d: duplicate id %s", i, group.ID)
		}
		seen[group.ID] = struct{}{}
		if strings.TrimSpace(group.Command) == "" {
			return fmt.Errorf("group %d: command is required", i)
		}
		if len(group.Fallbacks) == 0 {
			return fmt.Errorf("group %d: fallbacks are required", i)
		}
		if len(group.Fragments) > 0 && len(group.Fallbacks) != len(group.Fragments) {
			return fmt.Errorf("group %d: %d fallbacks for %d fragments", i, len(group.Fallbacks), len(group.Fragments))
		}
		for j, fragment := range group.Fragments {
			if strings.TrimSpace(fragment) == "" {
				return fmt.Errorf("group %d: fragment %d is blank", i, j)
			}
		}
		for j, fallback := range group.Fallbacks {
			if strings.TrimSpace(fallback) == "" {
				return fmt.Errorf("group %d: fallback %d is blank", i, j)
			}
		}
	}
	return nil
}

// FragmentCount is the number of fragments covered by all groups.
func (p StaticPlan) FragmentCount() int {
	n := 0
	for _, group := range p.Groups {
		n += len(group.Fragments)
	}
	return n
}

func (p DynamicPlan) Validate() error {
	if strings.TrimSpace(p.Template) == "" {
		return errors.New("dynamic plan template is required")
	}
	if p.BatchSize < 1 {
		return errors.New("dynamic plan batch size must be >= 1")
	}
	for i, fragment := range p.Fragments {
		if strings.TrimSpace(fragment) == "" {
			return fmt.Errorf("dynamic plan fragment %d is blank", i)
		}
	}
	return nil
}
