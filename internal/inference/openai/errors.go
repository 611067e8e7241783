package openai

import "errors"

var errEmptyResponse = errors.New("response contained no choices")
