// Package openai implements the provider adapter for the OpenAI Chat
// Completions API. Structured output is requested through forced function
// calling; streaming uses SSE with a usage block in the final chunk.
package openai
