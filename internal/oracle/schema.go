package oracle

import "github.com/santhosh-tekuri/jsonschema/v5"

// decisionSchema constrains the raw JSON shape coming back from the model
// before it is decoded into a Decision. Reference checks (facility and
// pookie ids) happen afterwards against the perception snapshot.
const decisionSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["type"],
  "properties": {
    "type": {
      "enum": [
        "idle", "say", "move-to-facility", "move-to-pookie",
        "interact-with-facility", "hit-pookie", "offer-trade",
        "accept-offer", "reject-offer"
      ]
    },
    "thought": {"type": "string"}
  },
  "oneOf": [
    {
      "properties": {"type": {"const": "idle"}, "seconds": {"type": "number"}},
      "required": ["seconds"]
    },
    {
      "properties": {"type": {"const": "say"}, "message": {"type": "string"}},
      "required": ["message"]
    },
    {
      "properties": {"type": {"enum": ["move-to-facility", "interact-with-facility"]}, "facilityId": {"type": "string"}},
      "required": ["facilityId"]
    },
    {
      "properties": {"type": {"const": "move-to-pookie"}, "pookieName": {"type": "string"}},
      "required": ["pookieName"]
    },
    {
      "properties": {"type": {"const": "hit-pookie"}, "targetPookieName": {"type": "string"}},
      "required": ["targetPookieName"]
    },
    {
      "properties": {
        "type": {"const": "offer-trade"},
        "targetPookieName": {"type": "string"},
        "itemsOffered": {"$ref": "#/$defs/stacks"},
        "itemsRequested": {"$ref": "#/$defs/stacks"}
      },
      "required": ["targetPookieName", "itemsOffered", "itemsRequested"]
    },
    {
      "properties": {"type": {"enum": ["accept-offer", "reject-offer"]}, "offerId": {"type": "string"}},
      "required": ["offerId"]
    }
  ],
  "$defs": {
    "stacks": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["itemId", "amount"],
        "properties": {
          "itemId": {"type": "string"},
          "amount": {"type": "number"}
        }
      }
    }
  }
}`

var compiledDecisionSchema = jsonschema.MustCompileString("decision.json", decisionSchema)
