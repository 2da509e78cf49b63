package render

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"mathviz/internal/domain/scenecfg"
)

// Scene class names the generated scripts expose to the manim CLI.
const (
	functionGraphScene = "FunctionGraphScene"
	barChartScene      = "BarChartScene"
	surfacePlotScene   = "SurfacePlotScene"
)

// BuildScene generates the manim scene script for params and returns it with
// the scene class name to render. Parameters are normalized and re-validated
// here because the renderer also consumes records deserialized from the
// store.
func BuildScene(params *scenecfg.Params) (string, string, error) {
	if params == nil {
		return "", "", errors.New("parameters are required")
	}
	p := *params
	p.Normalize()
	if err := p.Validate(); err != nil {
		return "", "", err
	}
	switch p.SceneType {
	case scenecfg.SceneFunctionGraph:
		return buildFunctionGraph(&p), functionGraphScene, nil
	case scenecfg.SceneBarChart:
		return buildBarChart(&p), barChartScene, nil
	case scenecfg.SceneSurfacePlot:
		return buildSurfacePlot(&p), surfacePlotScene, nil
	default:
		return "", "", fmt.Errorf("unsupported scene type %q", p.SceneType)
	}
}

func buildFunctionGraph(p *scenecfg.Params) string {
	var b strings.Builder
	b.WriteString(sceneHeader)
	fmt.Fprintf(&b, "class %s(Scene):\n    def construct(self):\n", functionGraphScene)
	writeBackground(&b, p.BackgroundColor)

	yRange := "[-8, 8]"
	if len(p.YRange) == 2 {
		yRange = pyFloatList(p.YRange)
	}
	fmt.Fprintf(&b, `        axes = Axes(
            x_range=%s,
            y_range=%s,
            x_length=10,
            y_length=6,
            axis_config={"color": BLUE},
            tips=False,
        )
`, pyFloatList(p.XRange), yRange)

	if p.ShowTickMarks == nil || *p.ShowTickMarks {
		b.WriteString("        axes.add_coordinates()\n")
	}
	writeSafeEval(&b, p.Function, "x")
	fmt.Fprintf(&b, "        graph = axes.plot(f, color=%s)\n", pyColor(p.Color))

	intro := "self.play(Create(axes), run_time=1)"
	if p.ShowAxisLabels == nil || *p.ShowAxisLabels {
		b.WriteString("        x_label = axes.get_x_axis_label(\"x\")\n")
		b.WriteString("        y_label = axes.get_y_axis_label(\"y\")\n")
		intro = "self.play(Create(axes), Write(x_label), Write(y_label), run_time=1)"
	}

	label := p.Label
	if label == "" {
		label = p.Function
	}
	fmt.Fprintf(&b, "        func_label = MathTex(r\"f(x) = %s\")\n", mathTex(label))
	b.WriteString("        func_label.to_edge(UP)\n")
	fmt.Fprintf(&b, "        %s\n", intro)
	b.WriteString("        self.play(Create(graph), run_time=2)\n")
	b.WriteString("        self.play(Write(func_label), run_time=1)\n")
	b.WriteString("        self.wait(1)\n")
	return b.String()
}

func buildBarChart(p *scenecfg.Params) string {
	var b strings.Builder
	b.WriteString(sceneHeader)
	fmt.Fprintf(&b, "class %s(Scene):\n    def construct(self):\n", barChartScene)
	writeBackground(&b, p.BackgroundColor)

	yMax, yStep := barChartYAxis(p.Values)
	fmt.Fprintf(&b, `        chart = BarChart(
            values=%s,
            bar_names=%s,
            bar_colors=[%s],
            y_range=[0, %s, %s],
            y_length=6,
            x_length=10,
        )
`, pyFloatList(p.Values), pyStringList(p.Categories), pyColor(p.Color), pyFloat(yMax), pyFloat(yStep))

	b.WriteString("        self.play(Create(chart), run_time=2)\n")
	if p.Title != "" {
		fmt.Fprintf(&b, "        title = Text(%s)\n", pyString(p.Title))
		b.WriteString("        title.to_edge(UP)\n")
		b.WriteString("        self.play(Write(title), run_time=1)\n")
	}
	b.WriteString("        self.wait(1)\n")
	return b.String()
}

func buildSurfacePlot(p *scenecfg.Params) string {
	var b strings.Builder
	b.WriteString(sceneHeader)
	fmt.Fprintf(&b, "class %s(ThreeDScene):\n    def construct(self):\n", surfacePlotScene)
	writeBackground(&b, p.BackgroundColor)

	b.WriteString("        self.set_camera_orientation(phi=65 * DEGREES, theta=-45 * DEGREES)\n")
	fmt.Fprintf(&b, `        axes = ThreeDAxes(
            x_range=%s,
            y_range=%s,
        )
`, pyFloatList(p.XRange), pyFloatList(p.YRange))
	writeSafeEval(&b, p.Function, "x", "y")
	fmt.Fprintf(&b, `        surface = Surface(
            lambda u, v: axes.c2p(u, v, f(u, v)),
            u_range=%s,
            v_range=%s,
            resolution=(30, 30),
            fill_opacity=0.8,
        )
`, pyFloatList(p.XRange), pyFloatList(p.YRange))
	fmt.Fprintf(&b, "        surface.set_color(%s)\n", pyColor(p.Color))

	if p.Title != "" {
		fmt.Fprintf(&b, "        title = Text(%s)\n", pyString(p.Title))
		b.WriteString("        title.to_edge(UP)\n")
		b.WriteString("        self.add_fixed_in_frame_mobjects(title)\n")
	}
	b.WriteString("        self.play(Create(axes), run_time=1)\n")
	b.WriteString("        self.play(Create(surface), run_time=2)\n")
	b.WriteString("        self.begin_ambient_camera_rotation(rate=0.2)\n")
	b.WriteString("        self.wait(3)\n")
	return b.String()
}

const sceneHeader = `from manim import *
import numpy as np

`

// writeSafeEval emits the sandboxed expression evaluator: the expression is
// evaluated against an explicit namespace with no builtins, matching the
// allow-list enforced at validation time.
func writeSafeEval(b *strings.Builder, expr string, variables ...string) {
	fmt.Fprintf(b, "        def f(%s):\n", strings.Join(variables, ", "))
	b.WriteString("            safe = {\n")
	for _, v := range variables {
		fmt.Fprintf(b, "                %q: %s,\n", v, v)
	}
	b.WriteString(`                "sin": np.sin, "cos": np.cos, "tan": np.tan,
                "exp": np.exp, "log": np.log, "log10": np.log10,
                "sqrt": np.sqrt, "abs": np.abs,
                "pi": np.pi, "e": np.e,
            }
`)
	fmt.Fprintf(b, "            try:\n                return eval(%s, {\"__builtins__\": {}}, safe)\n", pyString(expr))
	b.WriteString("            except Exception:\n                return 0.0\n")
}

func writeBackground(b *strings.Builder, color string) {
	if color == "" || strings.EqualFold(color, "transparent") {
		return
	}
	fmt.Fprintf(b, "        self.camera.background_color = %s\n", pyColor(color))
}

// barChartYAxis picks a y-axis ceiling and tick step covering the values.
func barChartYAxis(values []float64) (float64, float64) {
	maxVal := 0.0
	for _, v := range values {
		if v > maxVal {
			maxVal = v
		}
	}
	if maxVal <= 0 {
		maxVal = 1
	}
	ceiling := math.Ceil(maxVal * 1.2)
	step := math.Max(1, math.Ceil(ceiling/5))
	return ceiling, step
}

var manimConstantPattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)

// pyColor renders a color for embedding: manim constants (BLUE, RED) stay
// bare, everything else (hex codes, lowercase names) becomes a string.
func pyColor(color string) string {
	if manimConstantPattern.MatchString(color) {
		return color
	}
	return pyString(color)
}

func pyString(s string) string {
	// Validation rejects quotes, backslashes and newlines, so Go quoting is
	// safe to embed as a Python string literal.
	return strconv.Quote(s)
}

func pyFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func pyFloatList(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = pyFloat(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func pyStringList(values []string) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = pyString(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// mathTex renders a function label for MathTex, preferring caret notation.
func mathTex(label string) string {
	return strings.ReplaceAll(label, "**", "^")
}
