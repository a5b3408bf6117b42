package shader

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// stageMarker starts a stage section in a combined shader file.
const stageMarker = "#shader"

// Program is a linked vertex and fragment pair ready for render pipeline creation.
type Program struct {
	Key      string
	Vertex   Shader
	Fragment Shader

	layouts      map[int]wgpu.BindGroupLayoutDescriptor
	declarations []Annotation
}

// SplitSource splits a combined shader file into per-stage sources. A line containing
// "#shader vertex" or "#shader fragment" switches the section that following lines go to.
//
// Parameters:
//   - source: the combined file contents
//
// Returns:
//   - map[ShaderType]string: the source of each stage present in the file
//   - error: an error wrapping ErrShaderNoStageMarker for code before the first marker or an unknown stage
func SplitSource(source string) (map[ShaderType]string, error) {
	stages := make(map[ShaderType]*strings.Builder)
	var current *strings.Builder

	sc := bufio.NewScanner(strings.NewReader(source))
	sc.Buffer(make([]byte, 0, 64*1024), len(source)+1)
	lineNum := 0
	for sc.Scan() {
		lineNum++
		line := sc.Text()
		if _, after, ok := strings.Cut(line, stageMarker); ok {
			var st ShaderType
			switch strings.TrimSpace(after) {
			case "vertex":
				st = ShaderTypeVertex
			case "fragment":
				st = ShaderTypeFragment
			default:
				return nil, fmt.Errorf("%w: line %d: unknown stage %q", ErrShaderNoStageMarker, lineNum, strings.TrimSpace(after))
			}
			if stages[st] == nil {
				stages[st] = &strings.Builder{}
			}
			current = stages[st]
			continue
		}
		if current == nil {
			if strings.TrimSpace(line) == "" {
				continue
			}
			return nil, fmt.Errorf("%w: line %d: code before first %s marker", ErrShaderNoStageMarker, lineNum, stageMarker)
		}
		current.WriteString(line)
		current.WriteByte('\n')
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	out := make(map[ShaderType]string, len(stages))
	for st, b := range stages {
		out[st] = b.String()
	}
	return out, nil
}

// LoadProgram reads a combined shader file, builds both stages and links them.
// The stages are keyed "<key>_vertex" and "<key>_fragment".
//
// Parameters:
//   - key: the program key
//   - path: the combined shader file
//
// Returns:
//   - Program: the linked program
//   - error: a read error or an error wrapping ErrShaderNoStageMarker, ErrShaderCompileFailed or ErrShaderLinkFailed
func LoadProgram(key, path string) (Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Program{}, fmt.Errorf("program %s: failed to read %q: %w", key, path, err)
	}
	return LoadProgramFromSource(key, string(data))
}

// LoadProgramFromSource is LoadProgram for an in-memory combined source.
//
// Parameters:
//   - key: the program key
//   - source: the combined shader source
//
// Returns:
//   - Program: the linked program
//   - error: an error wrapping ErrShaderNoStageMarker, ErrShaderCompileFailed or ErrShaderLinkFailed
func LoadProgramFromSource(key, source string) (Program, error) {
	stages, err := SplitSource(source)
	if err != nil {
		return Program{}, fmt.Errorf("program %s: %w", key, err)
	}

	var vs, fs Shader
	if src, ok := stages[ShaderTypeVertex]; ok {
		if vs, err = NewShaderFromSource(key+"_vertex", ShaderTypeVertex, src); err != nil {
			return Program{}, err
		}
	}
	if src, ok := stages[ShaderTypeFragment]; ok {
		if fs, err = NewShaderFromSource(key+"_fragment", ShaderTypeFragment, src); err != nil {
			return Program{}, err
		}
	}
	return Link(key, vs, fs)
}

// Link checks that a vertex and fragment shader can share one pipeline layout and merges
// their bind group layouts, OR-ing the visibility of bindings both stages declare.
//
// Parameters:
//   - key: the program key
//   - vertex: the vertex stage
//   - fragment: the fragment stage
//
// Returns:
//   - Program: the linked program
//   - error: an error wrapping ErrShaderLinkFailed for a missing stage, a missing entry point,
//     or a group/binding declared with different resource types
func Link(key string, vertex, fragment Shader) (Program, error) {
	switch {
	case vertex == nil:
		return Program{}, fmt.Errorf("%w: %s: missing vertex stage", ErrShaderLinkFailed, key)
	case fragment == nil:
		return Program{}, fmt.Errorf("%w: %s: missing fragment stage", ErrShaderLinkFailed, key)
	case vertex.ShaderType() != ShaderTypeVertex || fragment.ShaderType() != ShaderTypeFragment:
		return Program{}, fmt.Errorf("%w: %s: stages out of order", ErrShaderLinkFailed, key)
	case vertex.EntryPoint() == "":
		return Program{}, fmt.Errorf("%w: %s: vertex stage has no @vertex entry point", ErrShaderLinkFailed, key)
	case fragment.EntryPoint() == "":
		return Program{}, fmt.Errorf("%w: %s: fragment stage has no @fragment entry point", ErrShaderLinkFailed, key)
	}

	layouts := make(map[int]wgpu.BindGroupLayoutDescriptor)
	for _, s := range []Shader{vertex, fragment} {
		for group, desc := range s.BindGroupLayoutDescriptors() {
			merged, err := mergeEntries(layouts[group].Entries, desc.Entries)
			if err != nil {
				return Program{}, fmt.Errorf("%w: %s: group %d: %v", ErrShaderLinkFailed, key, group, err)
			}
			layouts[group] = wgpu.BindGroupLayoutDescriptor{Label: fmt.Sprintf("%s_group_%d", key, group), Entries: merged}
		}
	}

	type declKey struct {
		typ            AnnotationType
		group, binding int
	}
	seen := make(map[declKey]bool)
	var decls []Annotation
	for _, s := range []Shader{vertex, fragment} {
		for _, d := range s.Declarations() {
			k := declKey{d.Type, *d.Group, *d.Binding}
			if seen[k] {
				continue
			}
			seen[k] = true
			decls = append(decls, d)
		}
	}

	return Program{
		Key:          key,
		Vertex:       vertex,
		Fragment:     fragment,
		layouts:      layouts,
		declarations: decls,
	}, nil
}

// BindGroupLayoutDescriptors returns the merged layouts of both stages keyed by group.
func (p Program) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return p.layouts
}

// Groups returns the used group indices in ascending order.
func (p Program) Groups() []int {
	groups := make([]int, 0, len(p.layouts))
	for g := range p.layouts {
		groups = append(groups, g)
	}
	sort.Ints(groups)
	return groups
}

// Declarations returns the annotations of both stages, one per kind and group/binding, vertex stage first.
func (p Program) Declarations() []Annotation {
	return p.declarations
}

// Provider returns the provider identity declared for a group, if any.
//
// Parameters:
//   - group: the group index
//
// Returns:
//   - AnnotationArg: the provider identity
//   - bool: false if no provider annotation names the group
func (p Program) Provider(group int) (AnnotationArg, bool) {
	for _, d := range p.declarations {
		if d.Type == AnnotationTypeProvider && *d.Group == group {
			return d.Args[0], true
		}
	}
	return "", false
}

func mergeEntries(existing, incoming []wgpu.BindGroupLayoutEntry) ([]wgpu.BindGroupLayoutEntry, error) {
	out := append([]wgpu.BindGroupLayoutEntry(nil), existing...)
	for _, in := range incoming {
		found := false
		for i := range out {
			if out[i].Binding != in.Binding {
				continue
			}
			found = true
			if out[i].Buffer.Type != in.Buffer.Type {
				return nil, fmt.Errorf("binding %d declared as %v and %v", in.Binding, out[i].Buffer.Type, in.Buffer.Type)
			}
			out[i].Visibility |= in.Visibility
			out[i].Buffer.MinBindingSize = max(out[i].Buffer.MinBindingSize, in.Buffer.MinBindingSize)
		}
		if !found {
			out = append(out, in)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Binding < out[j].Binding })
	return out, nil
}
