package handler

// APIPrefix is the canonical base path for the public HTTP API; the Angular
// client calls api/Cities, api/Countries and api/weatherforecast under it,
// which LowercasePath maps onto the lowercase routes.
const APIPrefix = "/api"
