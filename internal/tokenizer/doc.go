// Package tokenizer turns text into token IDs for text datasets.
//
// The only implementation wraps github.com/pkoukk/tiktoken-go. Loading an
// encoding may download its BPE ranks on first use; set TIKTOKEN_CACHE_DIR
// to reuse a local copy.
package tokenizer
