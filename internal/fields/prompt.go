package fields

import "strings"

const promptTemplate = `Extract the following fields from the Aadhaar card text below.

Return exactly one JSON object with these keys and nothing else:
  "aadhaar_number": the 12-digit Aadhaar number as a string with all spaces removed
  "name": the card holder's full name
  "age": the holder's age in whole years as an integer, calculated from the date or year of birth rather than copied from the text
  "gender": one of "Male", "Female", "Transgender"

Text:
<<<
{{TEXT}}
>>>`

// BuildPrompt renders the extraction instruction for the given OCR text.
func BuildPrompt(text string) string {
	return strings.Replace(promptTemplate, "{{TEXT}}", strings.TrimSpace(text), 1)
}
