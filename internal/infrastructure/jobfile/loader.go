package jobfile

import (
	"fmt"
	"log"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/parentrebuild/backend/internal/domain"
)

// Job is the YAML form of a rebuild request
type Job struct {
	ParentSKUs       []string          `yaml:"parent_skus"`
	Variations       []string          `yaml:"variations"`
	ExistingChildren []string          `yaml:"existing_children"`
	IncludeParent    *bool             `yaml:"include_parent"`
	InjectKeywords   *bool             `yaml:"inject_keywords"`
	SkipInventory    bool              `yaml:"skip_inventory"`
	Swatches         map[string]string `yaml:"swatches"`
}

// Load reads and validates a job file
func Load(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read job file: %w", err)
	}

	job, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	log.Printf("[REBUILD] Loaded job %s (%d parents)", path, len(job.ParentSKUs))
	return job, nil
}

// Parse decodes and validates job YAML
func Parse(data []byte) (*Job, error) {
	var job Job
	if err := yaml.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := job.validate(); err != nil {
		return nil, err
	}
	return &job, nil
}

func (j *Job) validate() error {
	for _, sku := range j.ParentSKUs {
		if strings.TrimSpace(sku) != "" {
			return nil
		}
	}
	return fmt.Errorf("%w: parent_skus is required", domain.ErrInvalidRequest)
}

// Request converts the job into a rebuild request. Swatches are rendered as
// "Color,URL" lines.
func (j *Job) Request() *domain.RebuildRequest {
	return &domain.RebuildRequest{
		ParentSKUs:       j.ParentSKUs,
		Variations:       j.Variations,
		ExistingChildren: j.ExistingChildren,
		IncludeParent:    j.IncludeParent,
		InjectKeywords:   j.InjectKeywords,
		SkipInventory:    j.SkipInventory,
		Swatches:         j.swatchText(),
	}
}

func (j *Job) swatchText() string {
	if len(j.Swatches) == 0 {
		return ""
	}
	var b strings.Builder
	for color, url := range j.Swatches {
		fmt.Fprintf(&b, "%s,%s\n", color, url)
	}
	return b.String()
}
