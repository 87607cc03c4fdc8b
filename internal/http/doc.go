// Package http exposes the booking, calendar, ledger and report services as a
// JSON API.
//
// Every route except GET /healthz requires an actor token, read from the
// `Authorization: Bearer` header or the `auth_token` cookie:
//   - GET /rooms, POST /rooms, DELETE /rooms/{id}: room catalog. Mutations
//     are reserved to administrators.
//   - GET /students, POST /students: student roster, administrators only for
//     creation.
//   - GET /bookings?date=&room_id=, GET /rooms/{id}/bookings, POST /bookings,
//     DELETE /bookings/{id}: the slot registry. Booking payloads carry
//     `can_cancel` for the requesting actor.
//   - GET /calendar?month=YYYY-MM&room_id=: day and half-day occupancy.
//   - GET|POST /students/{id}/ledger, DELETE /students/{id}/ledger/last,
//     POST /students/{id}/ledger/demote: the tardiness ledger.
//   - PATCH /entries/{id}, PUT|DELETE /entries/{id}/notified: entry edits and
//     the notification flag.
//   - GET /attention: students with un-notified escalated entries.
//   - GET /reports/bookings, GET /reports/tardiness: report rows.
//
// Request/response DTOs live alongside their respective handlers. Error
// bodies carry Italian messages.
package http
