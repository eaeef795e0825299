package model

import "time"

// User mirrors an external identity-provider record.  Rows are created,
// updated and deleted in response to provider lifecycle webhooks, never by
// request handlers.  The ID is the provider's subject string.
//
// Fields:
//  ID        – identity-provider subject.
//  Name      – display name.
//  Email     – delivery address for notifications.
//  Image     – avatar URL.
//  CreatedAt – timestamp of creation.
//  UpdatedAt – timestamp of last sync.
type User struct {
    ID        string    `json:"id"`
    Name      string    `json:"name"`
    Email     string    `json:"email"`
    Image     string    `json:"image"`
    CreatedAt time.Time `json:"created_at"`
    UpdatedAt time.Time `json:"updated_at"`
}
