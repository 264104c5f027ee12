// Package prompt builds the messages `driftlog explain` sends to a
// language model.
//
// [FromReport] compresses an analyzer.Report into prompt context; [Build]
// wraps it with the system persona for a [PromptType]:
//
//	opts := prompt.FromReport(report, prompt.DefaultMaxLines)
//	messages, err := prompt.Build(prompt.TypeExplain, opts)
//	if err != nil {
//	    return err
//	}
//	// Pass messages to llm.Stream or llm.Provider.ChatStream.
package prompt
