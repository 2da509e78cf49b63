package scenecfg

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// SceneType selects the kind of visualization and determines which
// parameters are required.
type SceneType string

const (
	SceneFunctionGraph SceneType = "function_graph"
	SceneBarChart      SceneType = "bar_chart"
	SceneSurfacePlot   SceneType = "surface_plot"
)

const (
	// DefaultColor is the line/bar/surface color applied when the request
	// omits one.
	DefaultColor = "#58C4DD"
	// DefaultBackground keeps rendered scenes compositable.
	DefaultBackground = "transparent"
	// MaxFunctionLength caps user-supplied expression strings.
	MaxFunctionLength = 500
	// MaxTextLength caps titles, labels and category names.
	MaxTextLength = 200
)

// Params is the scene-type-tagged parameter set for one visualization.
// Function/XRange/YRange apply to graphs and surfaces, Categories/Values to
// bar charts; the styling fields are shared and optional.
type Params struct {
	SceneType       SceneType `json:"scene_type"`
	Function        string    `json:"function,omitempty"`
	XRange          []float64 `json:"x_range,omitempty"`
	YRange          []float64 `json:"y_range,omitempty"`
	Categories      []string  `json:"categories,omitempty"`
	Values          []float64 `json:"values,omitempty"`
	Color           string    `json:"color,omitempty"`
	Label           string    `json:"label,omitempty"`
	Title           string    `json:"title,omitempty"`
	BackgroundColor string    `json:"background_color,omitempty"`
	ShowAxisLabels  *bool     `json:"show_axis_labels,omitempty"`
	ShowTickMarks   *bool     `json:"show_tick_marks,omitempty"`
}

var categoryCaser = cases.Title(language.English)

// Normalize fills per-scene-type defaults in place. It is applied before
// validation on every submission path and when reconstructing the original
// parameters for an edit.
func (p *Params) Normalize() {
	if p == nil {
		return
	}
	if p.SceneType == "" {
		p.SceneType = SceneFunctionGraph
	}
	p.Function = strings.TrimSpace(p.Function)
	p.Color = strings.TrimSpace(p.Color)
	p.Title = strings.TrimSpace(p.Title)
	p.Label = strings.TrimSpace(p.Label)
	p.BackgroundColor = strings.TrimSpace(p.BackgroundColor)
	if p.Color == "" {
		p.Color = DefaultColor
	}
	if p.BackgroundColor == "" {
		p.BackgroundColor = DefaultBackground
	}
	switch p.SceneType {
	case SceneFunctionGraph:
		if p.ShowAxisLabels == nil {
			p.ShowAxisLabels = BoolPtr(true)
		}
		if p.ShowTickMarks == nil {
			p.ShowTickMarks = BoolPtr(true)
		}
	case SceneBarChart:
		for i, category := range p.Categories {
			category = strings.TrimSpace(category)
			if category != "" && category == strings.ToLower(category) {
				category = categoryCaser.String(category)
			}
			p.Categories[i] = category
		}
	}
}

// Validate enforces the per-scene-type required fields and rejects unsafe
// expression strings before a job is ever enqueued.
func (p Params) Validate() error {
	switch p.SceneType {
	case SceneFunctionGraph:
		if err := ValidateExpression(p.Function, "x"); err != nil {
			return err
		}
		if err := validateRange("x_range", p.XRange, true); err != nil {
			return err
		}
		if err := validateRange("y_range", p.YRange, false); err != nil {
			return err
		}
	case SceneBarChart:
		if len(p.Categories) == 0 {
			return fmt.Errorf("categories are required for bar charts")
		}
		if len(p.Values) == 0 {
			return fmt.Errorf("values are required for bar charts")
		}
		if len(p.Categories) != len(p.Values) {
			return fmt.Errorf("categories and values must have the same length")
		}
		for _, category := range p.Categories {
			if err := validateText("category", category); err != nil {
				return err
			}
		}
	case SceneSurfacePlot:
		if err := ValidateExpression(p.Function, "x", "y"); err != nil {
			return err
		}
		if err := validateRange("x_range", p.XRange, true); err != nil {
			return err
		}
		if err := validateRange("y_range", p.YRange, true); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported scene type %q", p.SceneType)
	}
	if err := validateColor("color", p.Color); err != nil {
		return err
	}
	if err := validateColor("background_color", p.BackgroundColor); err != nil {
		return err
	}
	if err := validateText("title", p.Title); err != nil {
		return err
	}
	return validateText("label", p.Label)
}

// BoolPtr returns a pointer to v for the optional styling toggles.
func BoolPtr(v bool) *bool {
	b := v
	return &b
}

var (
	identifierPattern = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)
	expressionCharset = regexp.MustCompile(`^[A-Za-z0-9_+\-*/^().,\s]+$`)
	colorCharset      = regexp.MustCompile(`^[#A-Za-z0-9_]+$`)
)

// allowedIdentifiers is the sandbox vocabulary for expression strings. The
// render script evaluates expressions inside a namespace containing exactly
// these names, so anything else is rejected up front.
var allowedIdentifiers = map[string]struct{}{
	"sin": {}, "cos": {}, "tan": {},
	"exp": {}, "log": {}, "log10": {},
	"sqrt": {}, "abs": {},
	"pi": {}, "e": {},
}

// ValidateExpression checks that expr is a plausible math expression over
// the given variables, built only from allow-listed function names. It is a
// sandbox gate, not a parser: syntax errors still surface at render time.
func ValidateExpression(expr string, variables ...string) error {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return fmt.Errorf("function is required")
	}
	if len(expr) > MaxFunctionLength {
		return fmt.Errorf("function string too long (max %d characters)", MaxFunctionLength)
	}
	if !expressionCharset.MatchString(expr) {
		return fmt.Errorf("function contains unsupported characters")
	}
	vars := make(map[string]struct{}, len(variables))
	for _, v := range variables {
		vars[v] = struct{}{}
	}
	usesVariable := false
	for _, ident := range identifierPattern.FindAllString(expr, -1) {
		lower := strings.ToLower(ident)
		if _, ok := vars[lower]; ok {
			usesVariable = true
			continue
		}
		if _, ok := allowedIdentifiers[lower]; !ok {
			return fmt.Errorf("function uses forbidden name %q", ident)
		}
	}
	if !usesVariable {
		return fmt.Errorf("function must reference %s", strings.Join(variables, " or "))
	}
	return nil
}

func validateRange(name string, r []float64, required bool) error {
	if len(r) == 0 {
		if required {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
	if len(r) != 2 {
		return fmt.Errorf("%s must be [min, max]", name)
	}
	if r[0] >= r[1] {
		return fmt.Errorf("%s min must be below max", name)
	}
	return nil
}

func validateColor(name, value string) error {
	if value == "" {
		return nil
	}
	if !colorCharset.MatchString(value) {
		return fmt.Errorf("%s must be a color name or hex code", name)
	}
	return nil
}

func validateText(name, value string) error {
	if len(value) > MaxTextLength {
		return fmt.Errorf("%s too long (max %d characters)", name, MaxTextLength)
	}
	if strings.ContainsAny(value, "\"'\\\n\r") {
		return fmt.Errorf("%s contains unsupported characters", name)
	}
	return nil
}
