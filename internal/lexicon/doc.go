// Package lexicon stores the operator-curated transcription vocabulary:
// hotwords fed to the recognizer as an initial prompt, and corrections
// applied to finished subtitle text.
package lexicon
