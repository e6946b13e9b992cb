// Package tenant implements the per-restaurant data-isolation layer: tenant
// key normalization, a process-wide pool of per-tenant MongoDB connection
// handles, a memoized model registry binding entity repositories to one
// handle, and the HTTP middleware that resolves the requesting tenant and
// attaches its repository set to the request context.
//
// Each tenant owns one physical database on the shared cluster, named from
// the base connection URI plus the normalized tenant key. Handles are created
// lazily on first resolution, cached for the process lifetime, and evicted
// only when the driver reports the partition unreachable; the next request
// for that tenant then performs a fresh open.
//
// The resolver checks, in priority order: the authenticated principal's
// restaurant affiliation, the x-restaurant-name header, the restaurantName /
// restaurantId query parameters, and finally the request body. A request
// without any identifying information proceeds without a tenant context;
// handlers that need one reject it with ErrTenantRequired.
package tenant
