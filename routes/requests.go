package routes

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	. "github.com/PelionIoT/topology/logging"
	"github.com/PelionIoT/topology/requests"

	"github.com/gorilla/mux"
)

// RequestsEndpoint exposes one POST route per administrative request. Every
// route accepts ?dryRun=true to plan the request without applying it.
type RequestsEndpoint struct {
	TopologyFacade TopologyFacade
}

type requestDecoder func(r *http.Request) (requests.ClusterChangeRequest, error)

// decodeBody decodes the JSON body into target. An empty body leaves target
// at its zero value.
func decodeBody(r *http.Request, target interface{}) error {
	err := json.NewDecoder(r.Body).Decode(target)

	if err == io.EOF {
		return nil
	}

	return err
}

func bodyDecoder(newRequest func() requests.ClusterChangeRequest) requestDecoder {
	return func(r *http.Request) (requests.ClusterChangeRequest, error) {
		request := newRequest()

		if err := decodeBody(r, request); err != nil {
			return nil, err
		}

		return request, nil
	}
}

func (requestsEndpoint *RequestsEndpoint) handle(router *mux.Router, method string, path string, decode requestDecoder) {
	router.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		dryRun, err := parseBoolQuery(r, "dryRun")

		if err != nil {
			Log.Warningf("%s %s: Unable to parse dryRun: %v", method, path, err)

			writeBadRequest(w, "dryRun must be true or false")

			return
		}

		request, err := decode(r)

		if err != nil {
			Log.Warningf("%s %s: Unable to parse request body: %v", method, path, err)

			writeBadRequest(w, err.Error())

			return
		}

		status, err := requestsEndpoint.TopologyFacade.ApplyRequest(r.Context(), request, dryRun)

		if err != nil {
			Log.Warningf("%s %s: %v", method, path, err)

			writeError(w, err)

			return
		}

		writeJSON(w, http.StatusOK, status)
	}).Methods(method)
}

func (requestsEndpoint *RequestsEndpoint) Attach(router *mux.Router) {
	requestsEndpoint.handle(router, "POST", "/members/add", bodyDecoder(func() requests.ClusterChangeRequest { return &requests.AddMembersRequest{} }))
	requestsEndpoint.handle(router, "POST", "/members/remove", bodyDecoder(func() requests.ClusterChangeRequest { return &requests.RemoveMembersRequest{} }))
	requestsEndpoint.handle(router, "POST", "/members/force-remove", bodyDecoder(func() requests.ClusterChangeRequest { return &requests.ForceRemoveBrokersRequest{} }))
	requestsEndpoint.handle(router, "POST", "/members/force-scale-down", bodyDecoder(func() requests.ClusterChangeRequest { return &requests.ForceScaleDownRequest{} }))

	requestsEndpoint.handle(router, "POST", "/partitions/join", bodyDecoder(func() requests.ClusterChangeRequest { return &requests.JoinPartitionRequest{} }))
	requestsEndpoint.handle(router, "POST", "/partitions/leave", bodyDecoder(func() requests.ClusterChangeRequest { return &requests.LeavePartitionRequest{} }))
	requestsEndpoint.handle(router, "POST", "/partitions/reassign", bodyDecoder(func() requests.ClusterChangeRequest { return &requests.ReassignPartitionsRequest{} }))
	requestsEndpoint.handle(router, "POST", "/partitions/scale-up", bodyDecoder(func() requests.ClusterChangeRequest { return &requests.ScaleUpRequest{} }))

	requestsEndpoint.handle(router, "POST", "/cluster/broker-scale", bodyDecoder(func() requests.ClusterChangeRequest { return &requests.BrokerScaleRequest{} }))
	requestsEndpoint.handle(router, "POST", "/cluster/scale", bodyDecoder(func() requests.ClusterChangeRequest { return &requests.ClusterScaleRequest{} }))
	requestsEndpoint.handle(router, "POST", "/cluster/patch", bodyDecoder(func() requests.ClusterChangeRequest { return &requests.ClusterPatchRequest{} }))
	requestsEndpoint.handle(router, "POST", "/cluster/purge", bodyDecoder(func() requests.ClusterChangeRequest { return &requests.PurgeRequest{} }))
	requestsEndpoint.handle(router, "PUT", "/cluster/routing-state", bodyDecoder(func() requests.ClusterChangeRequest { return &requests.UpdateRoutingStateRequest{} }))

	requestsEndpoint.handle(router, "POST", "/exporters/{exporterID}/enable", func(r *http.Request) (requests.ClusterChangeRequest, error) {
		request := &requests.ExporterEnableRequest{}

		if err := decodeBody(r, request); err != nil {
			return nil, err
		}

		request.ExporterID = mux.Vars(r)["exporterID"]

		return request, nil
	})

	requestsEndpoint.handle(router, "POST", "/exporters/{exporterID}/disable", func(r *http.Request) (requests.ClusterChangeRequest, error) {
		return &requests.ExporterDisableRequest{ExporterID: mux.Vars(r)["exporterID"]}, nil
	})

	requestsEndpoint.handle(router, "DELETE", "/exporters/{exporterID}", func(r *http.Request) (requests.ClusterChangeRequest, error) {
		return &requests.ExporterDeleteRequest{ExporterID: mux.Vars(r)["exporterID"]}, nil
	})
}

func parseBoolQuery(r *http.Request, name string) (bool, error) {
	value := r.URL.Query().Get(name)

	if value == "" {
		return false, nil
	}

	return strconv.ParseBool(value)
}
