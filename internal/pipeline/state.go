package pipeline

// State is a step of the per-utterance state machine.
type State string

const (
	StateReceived       State = "received"
	StateFastCacheProbe State = "fast_cache_probe"
	StateTranscribing   State = "transcribing"
	StateEmptyCheck     State = "empty_check"
	StateCacheProbe     State = "cache_probe"
	StateMasking        State = "masking"
	StateTranslating    State = "translating"
	StateUnmasking      State = "unmasking"
	StateSynthesizing   State = "synthesizing"
	StateCached         State = "cached"
	StateDone           State = "done"
	StateErrored        State = "errored"
)
