package domain

// ContactID is the server-assigned identifier of a contact record.
// The client treats it as opaque and never generates one.
type ContactID string
