package schemas

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validResponse = `{
	"jd": {"company_name": "ExampleCorp"},
	"match_report": {"match_score_overall": 72},
	"evidence_map": {},
	"generation": {"resume_bullets": []},
	"validation": {"warnings": []}
}`

func TestValidateResponse_Valid(t *testing.T) {
	assert.NoError(t, ValidateResponse([]byte(validResponse)))
}

func TestValidateResponse_MissingTopLevelKey(t *testing.T) {
	body := `{"jd": {}, "match_report": {}, "evidence_map": {}, "generation": {}}`

	err := ValidateResponse([]byte(body))
	require.Error(t, err)

	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr), "error should be ValidationError type")
	require.Len(t, validationErr.Errors, 1)
	assert.Equal(t, "(root)", validationErr.Errors[0].Field)
	assert.Contains(t, validationErr.Summary(), "validation")
}

func TestValidateResponse_WrongType(t *testing.T) {
	body := `{"jd": {}, "match_report": [], "evidence_map": {}, "generation": {}, "validation": {}}`

	err := ValidateResponse([]byte(body))
	require.Error(t, err)

	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "match_report", validationErr.Errors[0].Field)
}

func TestValidateResponse_NotJSON(t *testing.T) {
	err := ValidateResponse([]byte(`<html>oops</html>`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read document")
}

func TestValidateRunRequest(t *testing.T) {
	valid := `{"job_description":"jd","profile_text":"p","use_tfidf":true,"use_bm25":true,
		"use_embeddings":false,"use_llm_jd_classifier":false,"use_llm_editor":true}`
	assert.NoError(t, ValidateRunRequest([]byte(valid)))

	nullToggle := `{"job_description":"jd","profile_text":"p","use_tfidf":null,"use_bm25":true,
		"use_embeddings":false,"use_llm_jd_classifier":false,"use_llm_editor":true}`
	assert.Error(t, ValidateRunRequest([]byte(nullToggle)))

	blank := `{"job_description":"   ","profile_text":"p","use_tfidf":true,"use_bm25":true,
		"use_embeddings":false,"use_llm_jd_classifier":false,"use_llm_editor":true}`
	assert.Error(t, ValidateRunRequest([]byte(blank)))
}

func TestSchemaLoadError(t *testing.T) {
	err := &SchemaLoadError{Path: "x.json", Message: "broken"}
	assert.Equal(t, "failed to load schema x.json: broken", err.Error())
	assert.Nil(t, err.Unwrap())
}
