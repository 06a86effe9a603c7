package tools

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/google/uuid"

	"appforge/internal/events"
)

// Definition describes one model-callable tool: the wire name the model uses,
// the display name surfaced in stream announcements, and the operation code
// used when formatting completion markers.
type Definition struct {
	Name        string
	DisplayName string
	Op          string

	build func() (tool.BaseTool, error)
}

// Registry holds all tools available to generation agents.
type Registry struct {
	defs   []Definition
	byName map[string]Definition
}

// NewRegistry builds the default registry with the full file tool set.
func NewRegistry() *Registry {
	r := &Registry{byName: make(map[string]Definition)}

	r.register(Definition{
		Name:        "writeFile",
		DisplayName: "Write File",
		Op:          "FILE_WRITE",
		build: func() (tool.BaseTool, error) {
			return utils.InferTool("writeFile", description("write_file_tool", "write or create a file in the project workspace"),
				report("writeFile", WriteFile, func(o *WriteFileOutput) string { return o.Output }))
		},
	})
	r.register(Definition{
		Name:        "readFile",
		DisplayName: "Read File",
		Op:          "FILE_READ",
		build: func() (tool.BaseTool, error) {
			return utils.InferTool("readFile", description("read_file_tool", "read the contents of a workspace file"),
				report("readFile", ReadFile, func(o *ReadFileOutput) string { return o.Output }))
		},
	})
	r.register(Definition{
		Name:        "modifyFile",
		DisplayName: "Modify File",
		Op:          "FILE_MODIFY",
		build: func() (tool.BaseTool, error) {
			return utils.InferTool("modifyFile", description("modify_file_tool", "replace text inside a workspace file"),
				report("modifyFile", ModifyFile, func(o *ModifyFileOutput) string { return o.Output }))
		},
	})
	r.register(Definition{
		Name:        "deleteFile",
		DisplayName: "Delete File",
		Op:          "FILE_DELETE",
		build: func() (tool.BaseTool, error) {
			return utils.InferTool("deleteFile", description("delete_file_tool", "delete a workspace file"),
				report("deleteFile", DeleteFile, func(o *DeleteFileOutput) string { return o.Output }))
		},
	})
	r.register(Definition{
		Name:        "readDir",
		DisplayName: "Read Directory",
		Op:          "DIR_READ",
		build: func() (tool.BaseTool, error) {
			return utils.InferTool("readDir", description("read_dir_tool", "list the files below a workspace directory"),
				report("readDir", ReadDir, func(o *ReadDirOutput) string { return o.Output }))
		},
	})
	r.register(Definition{
		Name:        "searchFiles",
		DisplayName: "Search Files",
		Op:          "FILE_SEARCH",
		build: func() (tool.BaseTool, error) {
			return utils.InferTool("searchFiles", description("search_files_tool", "find workspace files by glob pattern"),
				report("searchFiles", SearchFiles, func(o *SearchFilesOutput) string { return o.Output }))
		},
	})

	return r
}

func (r *Registry) register(def Definition) {
	r.defs = append(r.defs, def)
	r.byName[def.Name] = def
}

// Lookup returns the definition for a tool name the model used.
func (r *Registry) Lookup(name string) (Definition, bool) {
	def, ok := r.byName[name]
	return def, ok
}

// Definitions returns all registered tools in registration order.
func (r *Registry) Definitions() []Definition {
	out := make([]Definition, len(r.defs))
	copy(out, r.defs)
	return out
}

// BuildAll instantiates every registered tool for use in an agent.
func (r *Registry) BuildAll() ([]tool.BaseTool, error) {
	out := make([]tool.BaseTool, 0, len(r.defs))
	for _, def := range r.defs {
		t, err := def.build()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func description(key, fallback string) string {
	if desc := ToolDescription(key); strings.TrimSpace(desc) != "" {
		return desc
	}
	return fallback
}

// report wraps a tool function so each invocation is announced to the
// context's ToolSink before it runs and its raw result is delivered after.
func report[I, O any](name string, fn func(context.Context, *I) (*O, error), resultText func(*O) string) func(context.Context, *I) (*O, error) {
	return func(ctx context.Context, in *I) (*O, error) {
		sink := events.ToolSinkFromContext(ctx)
		callID := uuid.NewString()
		argsJSON := "{}"
		if data, err := json.Marshal(in); err == nil {
			argsJSON = string(data)
		}
		if sink != nil {
			sink.ToolRequested(events.ToolCall{CallID: callID, Name: name, ArgsJSON: argsJSON})
		}
		out, err := fn(ctx, in)
		if sink != nil {
			result := ""
			switch {
			case err != nil:
				result = "Error: " + err.Error()
			case out != nil:
				result = resultText(out)
			}
			sink.ToolCompleted(events.ToolResult{CallID: callID, Name: name, ArgsJSON: argsJSON, Result: result})
		}
		return out, err
	}
}
