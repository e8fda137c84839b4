package consultation

// applyDelta merges one transcription delta into the draft. Vitals are
// additive: a field is overwritten only when the delta carries a non-nil
// value for it; absent or null fields are never cleared. Detected actions are
// appended as-is, never deduplicated or reordered. Items are deliberately NOT
// touched here: the controller re-fetches them from the prescription store
// after every merge.
func applyDelta(d *Draft, delta *TranscriptionDelta) {
	for field, value := range delta.Vitals {
		if value == nil {
			continue
		}
		d.Vitals[field] = *value
	}
	d.DraftActions = append(d.DraftActions, delta.DraftActions...)
}
