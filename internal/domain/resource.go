package domain

import "time"

// ResourceType classifies a learning resource.
type ResourceType string

const (
	ResourceArticle ResourceType = "article"
	ResourceVideo   ResourceType = "video"
	ResourceCourse  ResourceType = "course"
	ResourceBook    ResourceType = "book"
)

// Difficulty bounds, inclusive.
const (
	MinDifficulty = 1
	MaxDifficulty = 5
)

// ResourceTypes returns every resource type.
func ResourceTypes() []ResourceType {
	return []ResourceType{ResourceArticle, ResourceVideo, ResourceCourse, ResourceBook}
}

func (t ResourceType) Valid() bool {
	switch t {
	case ResourceArticle, ResourceVideo, ResourceCourse, ResourceBook:
		return true
	default:
		return false
	}
}

// LearningResource is an external article, video, course or book tagged with
// the skills it teaches.
type LearningResource struct {
	ID          int64        `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	URL         string       `json:"url"`
	Type        ResourceType `json:"resource_type"`
	Difficulty  int          `json:"difficulty"`
	CreatedBy   int64        `json:"created_by"`
	Skills      []Skill      `json:"skills"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// SkillIDs returns the IDs of the attached skills.
func (r *LearningResource) SkillIDs() []int64 {
	ids := make([]int64, 0, len(r.Skills))
	for _, s := range r.Skills {
		ids = append(ids, s.ID)
	}
	return ids
}

// ResourceFilter narrows a resource listing. Zero values mean no filter.
type ResourceFilter struct {
	SkillID int64
	Type    ResourceType
}
