package usecase

import (
	"fmt"
	"sort"

	"github.com/lunes-platform/lunex-cli/internal/domain"
	"github.com/lunes-platform/lunex-cli/internal/domain/models"
	"github.com/samber/lo"
)

// dependencyGraph is the directed graph of contracts; edges point from a
// dependency to its dependents.
type dependencyGraph struct {
	nodes map[string]models.ContractSpec
	deps  map[string][]string
	edges map[string][]string
}

// dependenciesOf merges declared dependencies with constructor references.
func dependenciesOf(spec models.ContractSpec) []string {
	deps := lo.Uniq(append(append([]string{}, spec.DependsOn...), spec.References()...))
	sort.Strings(deps)
	return deps
}

func newDependencyGraph(specs []models.ContractSpec) (*dependencyGraph, error) {
	g := &dependencyGraph{
		nodes: make(map[string]models.ContractSpec, len(specs)),
		deps:  make(map[string][]string, len(specs)),
		edges: make(map[string][]string),
	}
	for _, spec := range specs {
		if spec.Name == "" {
			return nil, domain.NewValidationError("contracts", "every contract needs a name")
		}
		if _, exists := g.nodes[spec.Name]; exists {
			return nil, domain.NewValidationError("contracts", "contract '%s' is declared twice", spec.Name)
		}
		g.nodes[spec.Name] = spec
	}

	for _, spec := range specs {
		deps := dependenciesOf(spec)
		for _, dep := range deps {
			if dep == spec.Name {
				return nil, domain.NewValidationError("depends_on", "contract '%s' cannot depend on itself", spec.Name)
			}
			if _, exists := g.nodes[dep]; !exists {
				return nil, domain.NewValidationError("depends_on", "contract '%s' depends on non-existent contract '%s'", spec.Name, dep)
			}
			g.edges[dep] = append(g.edges[dep], spec.Name)
		}
		g.deps[spec.Name] = deps
	}
	return g, nil
}

// BuildPlan orders contracts so every dependency precedes its dependents.
// Ties are broken by name, so the same input always yields the same plan.
func BuildPlan(specs []models.ContractSpec) (*models.DeploymentPlan, error) {
	if len(specs) == 0 {
		return nil, domain.NewValidationError("contracts", "at least one contract is required")
	}
	g, err := newDependencyGraph(specs)
	if err != nil {
		return nil, err
	}

	inDegree := make(map[string]int, len(g.nodes))
	for name := range g.nodes {
		inDegree[name] = len(g.deps[name])
	}

	var queue []string
	for name, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, name)
		}
	}
	sort.Strings(queue)

	plan := &models.DeploymentPlan{}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		plan.Contracts = append(plan.Contracts, g.nodes[current])

		dependents := g.edges[current]
		sort.Strings(dependents)
		for _, dependent := range dependents {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				queue = append(queue, dependent)
				sort.Strings(queue)
			}
		}
	}

	if len(plan.Contracts) != len(g.nodes) {
		var cycle []string
		for name, degree := range inDegree {
			if degree > 0 {
				cycle = append(cycle, name)
			}
		}
		sort.Strings(cycle)
		return nil, fmt.Errorf("%w involving contracts: %v", domain.ErrCyclicDependency, cycle)
	}
	return plan, nil
}

// ValidatePlan checks that an ordered plan respects its own dependencies.
func ValidatePlan(plan *models.DeploymentPlan) error {
	if plan == nil || len(plan.Contracts) == 0 {
		return domain.NewValidationError("plan", "plan is empty")
	}
	g, err := newDependencyGraph(plan.Contracts)
	if err != nil {
		return err
	}
	seen := make(map[string]bool, len(plan.Contracts))
	for _, spec := range plan.Contracts {
		for _, dep := range g.deps[spec.Name] {
			if !seen[dep] {
				return domain.NewValidationError("plan", "contract '%s' is ordered before its dependency '%s'", spec.Name, dep)
			}
		}
		seen[spec.Name] = true
	}
	return nil
}
