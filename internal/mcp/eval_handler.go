package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/giantswarm/prompt-lab/internal/promptset"
	"github.com/giantswarm/prompt-lab/internal/render"
	"github.com/giantswarm/prompt-lab/internal/runner"
	"github.com/giantswarm/prompt-lab/internal/server"
)

func registerEvalTools(s *mcpserver.MCPServer, sc *server.ServerContext) {
	renderTool := mcp.NewTool("render_prompt",
		mcp.WithDescription("Render the prompt a variant produces for a case, without invoking the model"),
		mcp.WithString("set",
			mcp.Required(),
			mcp.Description("Name of the prompt set"),
		),
		mcp.WithString("variant",
			mcp.Required(),
			mcp.Description("Variant id"),
		),
		mcp.WithString("case",
			mcp.Required(),
			mcp.Description("Case id"),
		),
	)
	s.AddTool(renderTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleRenderPrompt(ctx, request, sc)
	})

	runTool := mcp.NewTool("run_eval",
		mcp.WithDescription("Run the full variant-by-case evaluation of a prompt set and export results"),
		mcp.WithString("set",
			mcp.Required(),
			mcp.Description("Name of the prompt set to evaluate"),
		),
		mcp.WithString("variant",
			mcp.Description("Run only this variant id (optional)"),
		),
		mcp.WithNumber("temperature",
			mcp.Description("Override the set's generation temperature (optional)"),
		),
		mcp.WithNumber("max_tokens",
			mcp.Description("Override the set's max output tokens (optional)"),
		),
		mcp.WithString("on_error",
			mcp.Description("Generation failure policy: 'record' (default) or 'abort'"),
		),
		mcp.WithBoolean("count_tokens",
			mcp.Description("Record best-effort prompt token counts as a diagnostic metric"),
		),
	)
	s.AddTool(runTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleRunEval(ctx, request, sc)
	})

	getResultsTool := mcp.NewTool("get_results",
		mcp.WithDescription("Retrieve results for past evaluation runs"),
		mcp.WithString("run_id",
			mcp.Description("Specific run ID to retrieve (optional, lists all if omitted)"),
		),
	)
	s.AddTool(getResultsTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleGetResults(ctx, request, sc)
	})

	countTool := mcp.NewTool("count_tokens",
		mcp.WithDescription("Count tokens for a piece of text (best-effort, backend-dependent)"),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Text to count tokens for"),
		),
	)
	s.AddTool(countTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleCountTokens(ctx, request, sc)
	})
}

func handleRenderPrompt(_ context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	set, errResult := loadSetArg(request, sc)
	if errResult != nil {
		return errResult, nil
	}

	args := request.GetArguments()
	variantID, _ := args["variant"].(string)
	caseID, _ := args["case"].(string)

	v, ok := variantByID(set, variantID)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("variant %q not found in set %q", variantID, set.Name)), nil
	}
	c, ok := caseByID(set, caseID)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("case %q not found in set %q", caseID, set.Name)), nil
	}

	rendered, err := render.Render(v, c)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return marshalResult(map[string]any{
		"prompt":  rendered.Prompt,
		"system":  rendered.System,
		"mime":    rendered.MIME,
		"applies": render.Applies(v, c),
	})
}

func handleRunEval(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	if sc.Client == nil {
		return mcp.NewToolResultError("model client is not configured; start the server with credentials to run evaluations"), nil
	}

	set, errResult := loadSetArg(request, sc)
	if errResult != nil {
		return errResult, nil
	}

	args := request.GetArguments()

	if variantID, ok := args["variant"].(string); ok && variantID != "" {
		v, found := variantByID(set, variantID)
		if !found {
			return mcp.NewToolResultError(fmt.Sprintf("variant %q not found in set %q", variantID, set.Name)), nil
		}
		set.Variants = []promptset.Variant{v}
	}
	if temp, ok := args["temperature"].(float64); ok {
		set.Defaults.Temperature = temp
	}
	if maxTokens, ok := args["max_tokens"].(float64); ok {
		set.Defaults.MaxOutputTokens = int(maxTokens)
	}

	r := runner.NewRunner(sc.Client, sc.Registry, sc.OutputDir)
	if policy, ok := args["on_error"].(string); ok && policy != "" {
		parsed, err := runner.ParseErrorPolicy(policy)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		r.SetErrorPolicy(parsed)
	}
	if count, ok := args["count_tokens"].(bool); ok {
		r.SetCountTokens(count)
	}

	run, err := r.Run(ctx, set)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("evaluation run failed: %v", err)), nil
	}

	return marshalResult(map[string]any{
		"run_id":    run.ID,
		"set":       run.Set,
		"model":     run.Model,
		"duration":  run.Duration.String(),
		"executed":  run.Executed,
		"skipped":   run.Skipped,
		"failed":    run.Failed,
		"csv_file":  run.CSVFile,
		"json_file": run.JSONFile,
	})
}

func handleCountTokens(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	if sc.Client == nil {
		return mcp.NewToolResultError("model client is not configured; start the server with credentials to count tokens"), nil
	}

	args := request.GetArguments()
	text, ok := args["text"].(string)
	if !ok || text == "" {
		return mcp.NewToolResultError("text is required"), nil
	}

	n, err := sc.Client.CountTokens(ctx, text)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("token count unavailable: %v", err)), nil
	}

	return marshalResult(map[string]any{"total_tokens": n})
}
