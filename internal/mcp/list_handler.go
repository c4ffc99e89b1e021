package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/giantswarm/prompt-lab/internal/promptset"
	"github.com/giantswarm/prompt-lab/internal/server"
)

func registerPromptSetTools(s *mcpserver.MCPServer, sc *server.ServerContext) {
	listSetsTool := mcp.NewTool("list_prompt_sets",
		mcp.WithDescription("List available prompt sets with variant and case counts"),
	)
	s.AddTool(listSetsTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleListPromptSets(ctx, request, sc)
	})

	listVariantsTool := mcp.NewTool("list_variants",
		mcp.WithDescription("List the variants of a prompt set with their applicability"),
		mcp.WithString("set",
			mcp.Required(),
			mcp.Description("Name of the prompt set (e.g. 'demo')"),
		),
	)
	s.AddTool(listVariantsTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleListVariants(ctx, request, sc)
	})

	listCasesTool := mcp.NewTool("list_cases",
		mcp.WithDescription("List the cases of a prompt set with their expectations"),
		mcp.WithString("set",
			mcp.Required(),
			mcp.Description("Name of the prompt set"),
		),
	)
	s.AddTool(listCasesTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleListCases(ctx, request, sc)
	})
}

func handleListPromptSets(_ context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	names, err := promptset.List(sc.SetsDir)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list prompt sets: %v", err)), nil
	}

	type setInfo struct {
		Name     string `json:"name"`
		Model    string `json:"model"`
		Variants int    `json:"variants"`
		Cases    int    `json:"cases"`
	}

	sets := []setInfo{}
	for _, name := range names {
		set, err := promptset.Load(name, sc.SetsDir)
		if err != nil {
			continue
		}
		sets = append(sets, setInfo{
			Name:     set.Name,
			Model:    set.Defaults.Model,
			Variants: len(set.Variants),
			Cases:    len(set.Cases),
		})
	}

	return marshalResult(sets)
}

func handleListVariants(_ context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	set, result := loadSetArg(request, sc)
	if result != nil {
		return result, nil
	}

	type variantInfo struct {
		ID        string   `json:"id"`
		Title     string   `json:"title,omitempty"`
		AppliesTo []string `json:"applies_to"`
		FewShots  int      `json:"few_shots"`
		MIME      string   `json:"response_mime_type,omitempty"`
		HasSystem bool     `json:"has_system"`
	}

	variants := make([]variantInfo, 0, len(set.Variants))
	for _, v := range set.Variants {
		applies := v.AppliesTo
		if len(applies) == 0 {
			applies = promptset.DefaultAppliesTo
		}
		variants = append(variants, variantInfo{
			ID:        v.ID,
			Title:     v.Title,
			AppliesTo: applies,
			FewShots:  len(v.FewShots),
			MIME:      v.ResponseMIMEType,
			HasSystem: v.System != "",
		})
	}

	return marshalResult(variants)
}

func handleListCases(_ context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	set, result := loadSetArg(request, sc)
	if result != nil {
		return result, nil
	}
	return marshalResult(set.Cases)
}

// loadSetArg resolves the required "set" argument. The second return is
// non-nil when resolution failed and should be returned to the caller as is.
func loadSetArg(request mcp.CallToolRequest, sc *server.ServerContext) (*promptset.Set, *mcp.CallToolResult) {
	args := request.GetArguments()
	name, ok := args["set"].(string)
	if !ok || name == "" {
		return nil, mcp.NewToolResultError("set is required")
	}
	set, err := promptset.Load(name, sc.SetsDir)
	if err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("failed to load prompt set: %v", err))
	}
	return set, nil
}

func marshalResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// variantByID finds a variant in a set; used by the render and run tools.
func variantByID(set *promptset.Set, id string) (promptset.Variant, bool) {
	for _, v := range set.Variants {
		if v.ID == id {
			return v, true
		}
	}
	return promptset.Variant{}, false
}

// caseByID finds a case in a set.
func caseByID(set *promptset.Set, id string) (promptset.Case, bool) {
	for _, c := range set.Cases {
		if c.ID == id {
			return c, true
		}
	}
	return promptset.Case{}, false
}
