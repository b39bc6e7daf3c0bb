// Package composer orchestrates composed proofs: reusable templates of proof
// verification components executed in dependency order with bounded
// parallelism, result caching and retries, and folded into one verdict.
//
// End-users typically interact with the engine via the Service façade:
//
//	srv, _ := composer.New(composer.WithToolExecutor(tools))
//	result, err := srv.Orchestrate(ctx, &composer.Request{
//		TemplateID:       "kyc-compliance",
//		GlobalParameters: map[string]interface{}{"companyName": "Acme Corp"},
//	})
//
// Request and template problems are returned as errors; failures during the
// run surface as an ERROR verdict with partial results and the audit trail.
// Execution snapshots can be polled with GetExecution while a run is active.
package composer
