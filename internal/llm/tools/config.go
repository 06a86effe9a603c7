package tools

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

type baseContext struct {
	root string
}

var (
	contextMu       sync.RWMutex
	defaultContext  = &baseContext{}
	sessionContexts = make(map[string]*baseContext)
)

type contextKey string

const sessionIDKey contextKey = "appforge/tools/session"

// ContextWithSession annotates ctx with a logical session identifier so tools can
// keep per-session state (the generation workspace root) without interfering
// with parallel generations.
func ContextWithSession(ctx context.Context, sessionID string) context.Context {
	if strings.TrimSpace(sessionID) == "" {
		return ctx
	}
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// SessionIDFromContext extracts the logical session identifier associated with ctx.
func SessionIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(sessionIDKey).(string); ok {
		return v
	}
	return ""
}

func normalizeRoot(root string) string {
	if strings.TrimSpace(root) == "" {
		return ""
	}
	if abs, err := filepath.Abs(root); err == nil {
		return abs
	}
	return root
}

func ensureSessionContext(sessionID string) *baseContext {
	if strings.TrimSpace(sessionID) == "" {
		return defaultContext
	}
	contextMu.Lock()
	defer contextMu.Unlock()
	if ctx, ok := sessionContexts[sessionID]; ok {
		return ctx
	}
	ctx := &baseContext{}
	sessionContexts[sessionID] = ctx
	return ctx
}

func lookupSessionContext(sessionID string) *baseContext {
	if strings.TrimSpace(sessionID) == "" {
		return defaultContext
	}
	contextMu.RLock()
	defer contextMu.RUnlock()
	return sessionContexts[sessionID]
}

// SetBaseRoot sets the default workspace directory used when a session has none.
func SetBaseRoot(root string) {
	defaultContext.root = normalizeRoot(root)
}

// SetBaseRootForSession sets the workspace directory for a specific logical session.
func SetBaseRootForSession(sessionID, root string) {
	ctx := ensureSessionContext(sessionID)
	ctx.root = normalizeRoot(root)
}

// BaseRootForSession returns the configured workspace directory for a session.
func BaseRootForSession(sessionID string) string {
	if ctx := lookupSessionContext(sessionID); ctx != nil {
		return ctx.root
	}
	return ""
}

// ClearSession releases per-session state.
func ClearSession(sessionID string) {
	if strings.TrimSpace(sessionID) == "" {
		return
	}
	contextMu.Lock()
	delete(sessionContexts, sessionID)
	contextMu.Unlock()
}

// getBaseRoot resolves the workspace root for ctx, preferring session state.
func getBaseRoot(ctx context.Context) (string, error) {
	if root := BaseRootForSession(SessionIDFromContext(ctx)); root != "" {
		return root, nil
	}
	if defaultContext.root != "" {
		return defaultContext.root, nil
	}
	return "", fmt.Errorf("workspace root not set")
}

// resolveUnderRoot resolves a relative path against the session workspace,
// rejecting absolute paths and anything that escapes the workspace.
func resolveUnderRoot(ctx context.Context, relPath string) (string, error) {
	rel := strings.TrimSpace(relPath)
	if rel == "" {
		return "", fmt.Errorf("path is required")
	}
	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("absolute paths are not allowed; use a path relative to the workspace (got: %s)", rel)
	}
	root, err := getBaseRoot(ctx)
	if err != nil {
		return "", err
	}
	abs, ok := safeJoinUnderBase(root, rel)
	if !ok {
		return "", fmt.Errorf("path '%s' escapes the workspace", rel)
	}
	return abs, nil
}

// safeJoinUnderBase resolves a path under base, returning an absolute path that
// is guaranteed to remain within base. If the resolution escapes base, ok=false.
func safeJoinUnderBase(base, p string) (abs string, ok bool) {
	cleanBase := base
	if cleanBase == "" {
		cleanBase = "."
	}
	absBase, err := filepath.Abs(cleanBase)
	if err != nil {
		return "", false
	}
	// Resolve symlinks for consistent comparison
	evalBase, err := filepath.EvalSymlinks(absBase)
	if err != nil {
		evalBase = absBase
	}

	candidate := filepath.Join(evalBase, p)
	absCandidate, err := filepath.Abs(candidate)
	if err != nil {
		return "", false
	}
	evalCandidate, err := filepath.EvalSymlinks(absCandidate)
	if err != nil {
		// If symlink evaluation fails (e.g., file doesn't exist yet), fall back to absolute path
		evalCandidate = absCandidate
	}

	relToBase, err := filepath.Rel(evalBase, evalCandidate)
	if err != nil {
		return "", false
	}
	if relToBase == "." {
		return absCandidate, true
	}
	if len(relToBase) >= 2 && relToBase[:2] == ".." {
		return "", false
	}
	return absCandidate, true
}
