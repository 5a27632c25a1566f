// Package gemini implements the provider adapter for Google's Generative
// Language API. Structured output is requested through responseMimeType and
// responseSchema; streaming uses streamGenerateContent with alt=sse.
package gemini
