// Package llm provides the provider-neutral model catalog and message types.
//
// The package knows nothing about HTTP. It defines what a model is, which
// provider binding it uses and how a caller names it; the chat package does
// the actual sending.
//
// # Core Concepts
//
//  1. Messages: Message carries a role (user, assistant, system) and content
//     blocks that are either text or an image.
//
//  2. Providers: Provider is a closed set of bindings (OpenAI-compatible with
//     a URL, Anthropic, Cohere, or a network-free test double). Code switches
//     on Provider.Kind rather than calling through an interface.
//
//  3. Models: Model is an immutable catalog entry. Prices are stored as whole
//     dollars per 1 billion tokens so the catalog round-trips through
//     RawModelConfig (dollars per 1 million tokens) without drift.
//
//  4. Resolution: Catalog.Resolve accepts an exact name or a unique partial
//     name (the query's characters appear in order in the model name).
//
//  5. Errors: Error is the single error type, tagged by ErrorType. Use the
//     Is*Error helpers to test for a category.
//
// Usage Example
//
//	catalog, err := llm.NewCatalog(llm.DefaultModels())
//	if err != nil {
//	    return err
//	}
//	model, err := catalog.Resolve("sonnet")
//	if llm.IsUnknownModelError(err) {
//	    // err.(*llm.Error).Candidates lists the partial matches
//	}
//
// Each wire codec lives in its own subpackage (openai, anthropic, cohere)
// and exposes EncodeRequest, Authorize and DecodeResponse.
package llm
