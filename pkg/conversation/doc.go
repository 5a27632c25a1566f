// Package conversation implements mention parsing and turn routing for
// multi-persona conversations: scanning assistant text for @Name tokens and
// [MENTION:Name:reason] directives against the roster, and deciding who
// speaks next under automatic or manual mode.
package conversation
