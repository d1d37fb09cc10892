package workflow

import "fmt"

const (
	// MaxPromptLength bounds the free-text style prompt, counted in characters.
	MaxPromptLength = 200
	// BatchSize is the number of results produced by one generation run.
	BatchSize = 4

	// DemoImageURL is the product photo used by the demo shortcut.
	DemoImageURL = "https://images.pexels.com/photos/1571460/pexels-photo-1571460.jpeg?auto=compress&cs=tinysrgb&w=600"
)

// Preset is a named style configuration from the fixed catalog.
type Preset struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Preview     string `json:"preview"`
	Gradient    string `json:"gradient"`
}

// Stage is one label of the cosmetic generation progress animation.
type Stage struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

var presets = []Preset{
	{
		ID:          "scandinavian",
		Name:        "Scandinavian",
		Description: "Clean lines, natural wood, neutral colors",
		Preview:     pexels(1571460, 400),
		Gradient:    "linear-gradient(to top, #dbeafe, #f3f4f6)",
	},
	{
		ID:          "minimalist",
		Name:        "Minimalist",
		Description: "Simple, uncluttered, monochromatic",
		Preview:     pexels(1571467, 400),
		Gradient:    "linear-gradient(to top, #f3f4f6, #ffffff)",
	},
	{
		ID:          "industrial",
		Name:        "Industrial",
		Description: "Raw materials, exposed brick, metal accents",
		Preview:     pexels(1571463, 400),
		Gradient:    "linear-gradient(to top, #ffedd5, #fee2e2)",
	},
	{
		ID:          "traditional",
		Name:        "Traditional",
		Description: "Classic furniture, warm colors, elegant",
		Preview:     pexels(1571468, 400),
		Gradient:    "linear-gradient(to top, #fef3c7, #fef9c3)",
	},
	{
		ID:          "luxury",
		Name:        "Luxury",
		Description: "Premium materials, rich textures, sophisticated",
		Preview:     pexels(1571475, 400),
		Gradient:    "linear-gradient(to top, #f3e8ff, #fce7f3)",
	},
}

var examplePrompts = []string{
	"Modern loft apartment with natural sunlight and wooden floors",
	"Cozy bedroom with warm lighting and soft textures",
	"Bright kitchen with marble countertops and pendant lights",
	"Elegant dining room with chandelier and hardwood floors",
}

var stages = []Stage{
	{Title: "Analyzing Product", Description: "AI is understanding your product details..."},
	{Title: "Designing Room", Description: "Creating the perfect room setting..."},
	{Title: "Rendering Images", Description: "Generating high-quality variations..."},
	{Title: "Final Touches", Description: "Adding professional finishing touches..."},
}

// resultPhotos are the stock photos a generation run cycles through,
// indexed by position within the batch.
var resultPhotos = []int{1571460, 1571467, 1571463, 1571468}

// Presets returns a copy of the preset catalog in display order.
func Presets() []Preset {
	return append([]Preset(nil), presets...)
}

// FindPreset returns the catalog entry with the given id.
func FindPreset(id string) (Preset, bool) {
	for _, p := range presets {
		if p.ID == id {
			return p, true
		}
	}
	return Preset{}, false
}

// ExamplePrompts returns the quick-fill prompt suggestions.
func ExamplePrompts() []string {
	return append([]string(nil), examplePrompts...)
}

// Stages returns the progress animation labels in display order.
func Stages() []Stage {
	return append([]Stage(nil), stages...)
}

// StageAt returns the stage shown at tick i of the animation.
func StageAt(i int) Stage {
	n := len(stages)
	return stages[((i%n)+n)%n]
}

func resultURL(index int) string {
	return pexels(resultPhotos[index%len(resultPhotos)], 800)
}

func pexels(id, width int) string {
	return fmt.Sprintf(
		"https://images.pexels.com/photos/%d/pexels-photo-%d.jpeg?auto=compress&cs=tinysrgb&w=%d",
		id, id, width,
	)
}
