package identify

const identifyPrompt = `You are a botanist identifying a houseplant from a photo.

Respond with a single JSON object and nothing else, using this shape:

{
  "species": "common display name",
  "scientificName": "binomial name",
  "confidence": 0.0,
  "suggestions": [
    {"species": "common name", "scientificName": "binomial name", "confidence": 0.0}
  ]
}

Rules:
- confidence is your certainty between 0 and 1.
- If you are confident in a single species, fill species, scientificName and
  confidence, and leave suggestions empty.
- If several species are plausible, leave species empty and list up to 5
  candidates in suggestions, most likely first.
- If the photo does not show a plant, respond with
  {"error": "no plant visible"}.`

const researchPromptFormat = `You are a houseplant care expert. Produce care guidance for:

Species: %s
Scientific name: %s

Respond with a single JSON object and nothing else, using this shape:

{
  "wateringIntervalDays": 7,
  "fertilizingIntervalDays": 30,
  "light": "one short phrase, e.g. bright indirect",
  "notes": "two or three sentences of care advice"
}

Intervals are whole days for a typical indoor environment.`
