// Package calendar is the gateway between the agent and the Google Calendar API.
//
// The Client wraps an explicitly constructed *calendar.Service and exposes the
// four operations the agent needs (list, create, update, delete). Each call is
// independent: nothing is cached between calls, and every failure is returned
// as a *Error carrying a Kind the caller can report back to the model.
//
// Example usage:
//
//	svc, err := calendar.NewService(ctx, httpClient)
//	if err != nil {
//	    return err
//	}
//	client, err := calendar.NewClient(svc)
//	if err != nil {
//	    return err
//	}
//
//	events, err := client.ListEvents(ctx, calendar.ListOptions{MaxResults: 1})
package calendar
