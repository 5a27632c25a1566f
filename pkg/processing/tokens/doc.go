// Package tokens provides character-based token estimation for calls whose
// backend did not report usage. Estimates keep cost accounting total even
// when providers omit counts; estimated usage is flagged as such.
package tokens
