// Package submission envia documentos ao endpoint de criação de documentos,
// sempre passando antes pelo gate de permissões.
//
// Client.Submit espera uma permissão e entrega o payload ao Sender;
// HTTPSender é o Sender padrão (POST JSON, 200 = sucesso).
package submission
