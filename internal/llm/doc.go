// Package llm asks a language model to explain a comparison report.
//
// Provider hides the concrete backend. The only backend is Ollama, in the
// llm/ollama subpackage, which defines its own types to avoid an import
// cycle; this package adapts them.
//
//	provider, err := llm.NewProvider(cfg.LLM, logger)
//	if err != nil {
//	    return err
//	}
//	if err := llm.Check(ctx, provider, cfg.LLM.Ollama.Model); err != nil {
//	    return err
//	}
//	text, err := llm.Stream(ctx, provider, messages, &llm.ChatOptions{
//	    Temperature: cfg.LLM.Temperature,
//	    MaxTokens:   cfg.LLM.MaxTokens,
//	}, os.Stdout)
//
// Errors wrap ErrProviderUnavailable when the server cannot be reached and
// ErrModelNotFound when the model has not been pulled; check them with
// errors.Is.
package llm
