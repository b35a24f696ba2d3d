// Package seed fills an empty database with a starter catalog of skills and
// learning resources.
package seed

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mmaazkhanhere/learnpath/internal/domain"
	"github.com/mmaazkhanhere/learnpath/internal/service"
	apperrors "github.com/mmaazkhanhere/learnpath/pkg/errors"
)

// SkillCreator is satisfied by *service.SkillService.
type SkillCreator interface {
	Create(ctx context.Context, in service.CreateSkillInput, actorID int64) (*domain.Skill, error)
}

// ResourceCreator is satisfied by *service.ResourceService.
type ResourceCreator interface {
	Create(ctx context.Context, in service.CreateResourceInput, actorID int64) (*domain.LearningResource, error)
}

// Entry is one skill and the resources that teach it.
type Entry struct {
	Skill     service.CreateSkillInput
	Resources []service.CreateResourceInput
}

// Stats counts what a run did.
type Stats struct {
	SkillsCreated    int
	SkillsSkipped    int
	ResourcesCreated int
	Failures         int
}

// Seeder writes a catalog through the services so slugs, validation and cache
// invalidation behave exactly as they do for API writes.
type Seeder struct {
	skills    SkillCreator
	resources ResourceCreator
	logger    *slog.Logger
}

func NewSeeder(skills SkillCreator, resources ResourceCreator, logger *slog.Logger) *Seeder {
	return &Seeder{skills: skills, resources: resources, logger: logger}
}

// Run creates every entry as actorID. A skill that already exists is skipped
// with its resources, which makes reruns safe. Other failures are logged and
// counted; Run only returns early when ctx is done.
func (s *Seeder) Run(ctx context.Context, actorID int64, catalog []Entry) (Stats, error) {
	var stats Stats
	for _, entry := range catalog {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		skill, err := s.skills.Create(ctx, entry.Skill, actorID)
		switch {
		case errors.Is(err, apperrors.ErrAlreadyExists):
			stats.SkillsSkipped++
			s.logger.InfoContext(ctx, "skill already seeded", slog.String("title", entry.Skill.Title))
			continue
		case err != nil:
			stats.Failures++
			s.logger.WarnContext(ctx, "seed skill failed",
				slog.String("title", entry.Skill.Title),
				slog.String("error", err.Error()),
			)
			continue
		}
		stats.SkillsCreated++

		for _, in := range entry.Resources {
			in.SkillIDs = append([]int64{skill.ID}, in.SkillIDs...)
			if _, err := s.resources.Create(ctx, in, actorID); err != nil {
				stats.Failures++
				s.logger.WarnContext(ctx, "seed resource failed",
					slog.String("title", in.Title),
					slog.String("error", err.Error()),
				)
				continue
			}
			stats.ResourcesCreated++
		}
	}
	return stats, nil
}

// Catalog is the starter content shipped with the service.
func Catalog() []Entry {
	return []Entry{
		{
			Skill: service.CreateSkillInput{Title: "Go", Description: "The Go programming language"},
			Resources: []service.CreateResourceInput{
				{Title: "A Tour of Go", URL: "https://go.dev/tour/", Type: string(domain.ResourceCourse), Difficulty: 1},
				{Title: "Effective Go", URL: "https://go.dev/doc/effective_go", Type: string(domain.ResourceArticle), Difficulty: 2},
				{Title: "The Go Programming Language", URL: "https://www.gopl.io/", Type: string(domain.ResourceBook), Difficulty: 3},
			},
		},
		{
			Skill: service.CreateSkillInput{Title: "Go Concurrency", Description: "Goroutines, channels and the sync package"},
			Resources: []service.CreateResourceInput{
				{Title: "Go Concurrency Patterns", URL: "https://go.dev/talks/2012/concurrency.slide", Type: string(domain.ResourceVideo), Difficulty: 3},
				{Title: "Share Memory By Communicating", URL: "https://go.dev/blog/codelab-share", Type: string(domain.ResourceArticle), Difficulty: 2},
			},
		},
		{
			Skill: service.CreateSkillInput{Title: "SQL", Description: "Querying relational databases"},
			Resources: []service.CreateResourceInput{
				{Title: "PostgreSQL Tutorial", URL: "https://www.postgresql.org/docs/current/tutorial.html", Type: string(domain.ResourceCourse), Difficulty: 1},
				{Title: "Use The Index, Luke", URL: "https://use-the-index-luke.com/", Type: string(domain.ResourceBook), Difficulty: 4},
			},
		},
		{
			Skill: service.CreateSkillInput{Title: "HTTP APIs", Description: "Designing and securing HTTP services"},
			Resources: []service.CreateResourceInput{
				{Title: "MDN HTTP Overview", URL: "https://developer.mozilla.org/en-US/docs/Web/HTTP/Overview", Type: string(domain.ResourceArticle), Difficulty: 1},
				{Title: "JSON Web Token Introduction", URL: "https://jwt.io/introduction", Type: string(domain.ResourceArticle), Difficulty: 2},
			},
		},
	}
}
