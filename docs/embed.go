package docs

import _ "embed"

//go:embed intake-api.openapi.yaml
var embeddedIntakeOpenAPI []byte

//go:embed swagger.html
var embeddedIntakeSwaggerHTML []byte

// IntakeOpenAPI is the OpenAPI document for the intake API.
var IntakeOpenAPI = embeddedIntakeOpenAPI

// IntakeSwaggerHTML renders IntakeOpenAPI with Swagger UI.
var IntakeSwaggerHTML = embeddedIntakeSwaggerHTML
