// Package application contém os casos de uso de admissão no gate de permissões.
//
// Ele depende apenas do pacote domain e não conhece net/http.
// Ex.: AdmissionService.Admit(ctx) espera uma permissão; Decide() responde na hora.
package application
