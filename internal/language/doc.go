// Package language normalizes the language hint handed to speech engines.
//
// An empty hint or the "auto" sentinel means the engine detects the spoken
// language itself. Anything else is resolved to an ISO 639-1 code where one
// exists, accepting BCP 47 tags ("de-DE"), ISO 639-2 codes ("deu", "ger"),
// and English language names ("german").
package language
